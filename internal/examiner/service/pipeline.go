// Package service runs the examiner check over a directory tree: scan, OCR,
// extract, registry lookup, compare, and hand results to the sinks.
package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	"github.com/rgra/examiner-check/internal/examiner/extract"
	"github.com/rgra/examiner-check/internal/examiner/match"
	"github.com/rgra/examiner-check/internal/examiner/pdfinfo"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
	"github.com/rgra/examiner-check/pkg/logger"
)

// Scanner lists application directories and their documents
type Scanner interface {
	Scan(ctx context.Context, root string) ([]domain.Application, error)
}

// OCR turns document bytes into recognised text
type OCR interface {
	Parse(ctx context.Context, name string, data []byte) (*domain.OCRResponse, error)
}

// Registry returns the examiner recorded for an application
type Registry interface {
	Examiner(ctx context.Context, id domain.ApplicationID) (string, error)
}

// Sink receives results as they are produced. DocumentDone is called once per
// document in walk order, RunDone once at the end, also for failed runs.
type Sink interface {
	Name() string
	DocumentDone(ctx context.Context, runID string, entry domain.DocumentEntry, lines []domain.LineRecord) error
	RunDone(ctx context.Context, r *domain.Report) error
}

// Options tunes a pipeline
type Options struct {
	// LineThreshold is the minimum ratio for an OCR line to count as the
	// registry examiner name.
	LineThreshold int
	// MaxPages only triggers a warning; the OCR service decides what it reads.
	MaxPages int
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{LineThreshold: 80, MaxPages: 3}
}

// Pipeline processes documents one at a time
type Pipeline struct {
	scanner  Scanner
	ocr      OCR
	registry Registry
	sinks    []Sink
	opts     Options
	logger   *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewPipeline creates a pipeline. Sinks may be empty.
func NewPipeline(scanner Scanner, ocr OCR, registry Registry, opts Options, log *logger.Logger, sinks ...Sink) *Pipeline {
	return &Pipeline{
		scanner:  scanner,
		ocr:      ocr,
		registry: registry,
		sinks:    sinks,
		opts:     opts,
		logger:   logger.OrNop(log).WithComponent("pipeline"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run processes every document under root. The report is always returned;
// report.Err is set when the root could not be walked or the context ended.
// The error return collects sink failures only.
func (p *Pipeline) Run(ctx context.Context, root string) (*domain.Report, error) {
	r := &domain.Report{
		RunID:     p.newID(),
		Root:      root,
		StartedAt: p.now(),
	}
	log := p.logger.WithRunID(r.RunID)
	log.Info().Str("root", root).Int("sinks", len(p.sinks)).Msg("run started")

	var sinkErrs []error

	apps, err := p.scanner.Scan(ctx, root)
	if err != nil {
		r.Err = err
		log.Error().Err(err).Str("kind", string(apperrors.KindOf(err))).Msg("scan failed")
	}

	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			r.Err = err
			log.Warn().Err(err).Msg("run interrupted")
			break
		}

		entry := domain.ApplicationEntry{ID: app.ID, Documents: []domain.DocumentEntry{}}
		appLog := log.WithApplication(string(app.ID))

		for _, doc := range app.Documents {
			if ctx.Err() != nil {
				break
			}
			de, lines := p.processDocument(ctx, appLog, doc)
			for i := range lines {
				lines[i].RunID = r.RunID
			}
			entry.Documents = append(entry.Documents, de)
			r.Lines = append(r.Lines, lines...)

			for _, s := range p.sinks {
				if err := s.DocumentDone(ctx, r.RunID, de, lines); err != nil {
					appLog.Error().Err(err).Str("sink", s.Name()).Str("file", doc.Name).Msg("sink failed on document")
					sinkErrs = append(sinkErrs, err)
				}
			}
		}
		r.Applications = append(r.Applications, entry)
	}

	// a cancel during the last application ends the inner loop only
	if err := ctx.Err(); err != nil && r.Err == nil {
		r.Err = err
		log.Warn().Err(err).Msg("run interrupted")
	}

	r.FinishedAt = p.now()
	r.Finalize()

	for _, s := range p.sinks {
		if err := s.RunDone(ctx, r); err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Msg("sink failed on run")
			sinkErrs = append(sinkErrs, err)
		}
	}

	log.Info().
		Int("applications", r.Summary.Applications).
		Int("documents", r.Summary.Documents).
		Int("exact_matches", r.Summary.ExactMatches).
		Bool("failed", r.Failed()).
		Dur("elapsed", r.FinishedAt.Sub(r.StartedAt)).
		Msg("run finished")

	return r, errors.Join(sinkErrs...)
}

// processDocument never fails: every stage failure ends up in the entry's
// name results.
func (p *Pipeline) processDocument(ctx context.Context, log *logger.Logger, doc domain.Document) (domain.DocumentEntry, []domain.LineRecord) {
	start := p.now()
	entry := domain.DocumentEntry{Document: doc}

	var ocrLines []string
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		entry.OCRExaminer = domain.Failed(apperrors.IO("read document", err))
	} else {
		info := pdfinfo.Inspect(data)
		entry.Pages = info.Pages
		entry.Digest = info.Digest
		if p.opts.MaxPages > 0 && info.Pages > p.opts.MaxPages {
			log.Warn().
				Str("file", doc.Name).
				Int("pages", info.Pages).
				Int("max_pages", p.opts.MaxPages).
				Msg("document has more pages than the OCR service reads")
		}

		resp, err := p.ocr.Parse(ctx, doc.Name, data)
		if err != nil {
			entry.OCRExaminer = domain.Failed(err)
		} else {
			ocrLines = extract.Lines(resp)
			if name, err := extract.Examiner(resp); err != nil {
				entry.OCRExaminer = domain.Failed(err)
			} else {
				entry.OCRExaminer = domain.Found(name)
			}
		}
	}

	if name, err := p.registry.Examiner(ctx, doc.Application); err != nil {
		entry.RegistryExaminer = domain.Failed(err)
	} else {
		entry.RegistryExaminer = domain.Found(name)
	}

	// Scored on the rendered values, so two missing names compare as "NA" vs "NA".
	entry.Ratio = match.Ratio(entry.OCRExaminer.Display(), entry.RegistryExaminer.Display())

	row := func(n int, text string) domain.LineRecord {
		return domain.LineRecord{
			ApplicationNumber: string(doc.Application),
			DocumentNumber:    doc.Number(),
			FileName:          doc.Name,
			Digest:            entry.Digest,
			LineNumber:        n,
			Text:              text,
			OCRExaminer:       entry.OCRExaminer.Display(),
			RegistryExaminer:  entry.RegistryExaminer.Display(),
			Ratio:             entry.Ratio,
		}
	}

	if len(ocrLines) == 0 {
		// line 0 keeps a document without OCR text visible in the table
		entry.Duration = p.now().Sub(start)
		logDocument(log, entry, 1)
		return entry, []domain.LineRecord{row(0, "")}
	}

	lines := make([]domain.LineRecord, len(ocrLines))
	for i, text := range ocrLines {
		lr := row(i+1, text)
		if entry.RegistryExaminer.OK() {
			lr.LineRatio = match.Ratio(text, entry.RegistryExaminer.Value)
			lr.IsExaminerName = match.AtLeast(text, entry.RegistryExaminer.Value, p.opts.LineThreshold)
		}
		if lr.IsExaminerName {
			entry.NameInText = true
		}
		lines[i] = lr
	}
	entry.Lines = ocrLines
	entry.Duration = p.now().Sub(start)
	logDocument(log, entry, len(lines))

	return entry, lines
}

func logDocument(log *logger.Logger, entry domain.DocumentEntry, rows int) {
	ev := log.Debug()
	if !entry.OCRExaminer.OK() || !entry.RegistryExaminer.OK() {
		ev = log.Warn().
			Str("ocr_failure", string(entry.OCRExaminer.Failure)).
			Str("registry_failure", string(entry.RegistryExaminer.Failure))
	}
	ev.Str("file", entry.Document.Name).
		Int("pages", entry.Pages).
		Int("lines", rows).
		Int("ratio", entry.Ratio).
		Bool("name_in_text", entry.NameInText).
		Dur("elapsed", entry.Duration).
		Msg("document processed")
}
