package service

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	"github.com/rgra/examiner-check/internal/examiner/ocr"
	"github.com/rgra/examiner-check/internal/examiner/registry"
	"github.com/rgra/examiner-check/internal/examiner/report"
	"github.com/rgra/examiner-check/internal/examiner/scanner"
	"github.com/rgra/examiner-check/pkg/config"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
	"github.com/rgra/examiner-check/pkg/testutil"
)

type fixture struct {
	ocr      *testutil.FakeOCR
	registry *testutil.FakeRegistry
	pipeline *Pipeline
}

func newFixture(t *testing.T, sinks ...Sink) *fixture {
	t.Helper()
	fakeOCR := testutil.NewFakeOCR(t)
	fakeRegistry := testutil.NewFakeRegistry(t)

	sc, err := scanner.New(scanner.DefaultPattern, nil)
	require.NoError(t, err)

	ocrClient := ocr.NewClient(config.OCRConfig{URL: fakeOCR.URL(), APIKey: "test-key", Timeout: 5 * time.Second}, nil)
	registryClient := registry.NewClient(config.RegistryConfig{URL: fakeRegistry.URL(), Timeout: 5 * time.Second}, nil)

	p := NewPipeline(sc, ocrClient, registryClient, DefaultOptions(), nil, sinks...)
	p.newID = func() string { return "run-1" }

	return &fixture{ocr: fakeOCR, registry: fakeRegistry, pipeline: p}
}

type recordingSink struct {
	docs    []string
	lines   int
	runs    []*domain.Report
	failDoc error
	failRun error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) DocumentDone(_ context.Context, runID string, entry domain.DocumentEntry, lines []domain.LineRecord) error {
	s.docs = append(s.docs, runID+":"+string(entry.Document.Application)+"/"+entry.Document.Name)
	s.lines += len(lines)
	return s.failDoc
}

func (s *recordingSink) RunDone(_ context.Context, r *domain.Report) error {
	s.runs = append(s.runs, r)
	return s.failRun
}

func TestRun_EndToEnd(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{
		"12345678/12345678_SRFW.pdf": "%PDF-1.4 fake",
	})
	sink := &recordingSink{}
	f := newFixture(t, sink)
	f.ocr.SetText("12345678_SRFW.pdf", "Name\r\nJohn\r\nExaminer\r\nJane Doe")
	f.registry.SetExaminer("12345678", "Jane Doe")

	r, err := f.pipeline.Run(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, r.Err)

	require.Len(t, r.Applications, 2)
	assert.Equal(t, domain.ApplicationID("."), r.Applications[0].ID)
	require.Len(t, r.Applications[1].Documents, 1)

	doc := r.Applications[1].Documents[0]
	assert.Equal(t, "Jane Doe", doc.OCRExaminer.Display())
	assert.Equal(t, "Jane Doe", doc.RegistryExaminer.Display())
	assert.Equal(t, 100, doc.Ratio)
	assert.True(t, doc.NameInText)
	assert.Len(t, doc.Digest, 64)

	text := report.Text(r, false)
	assert.Equal(t, "Parsed application: .\n\n"+
		"Parsed application: 12345678\n\n"+
		"Parsed file: 12345678_SRFW.pdf\n"+
		"Examiner name from OCR API: Jane Doe\n"+
		"Examiner name from USPTO API: Jane Doe\n"+
		"Fuzzy match ratio: 100\n\n", text)

	require.Len(t, r.Lines, 4)
	last := r.Lines[3]
	assert.Equal(t, "run-1", last.RunID)
	assert.Equal(t, "12345678", last.ApplicationNumber)
	assert.Equal(t, "12345678_SRFW", last.DocumentNumber)
	assert.Equal(t, 4, last.LineNumber)
	assert.Equal(t, "Jane Doe", last.Text)
	assert.Equal(t, 100, last.LineRatio)
	assert.True(t, last.IsExaminerName)
	assert.False(t, r.Lines[2].IsExaminerName)

	assert.Equal(t, domain.Summary{
		Applications: 2, Documents: 1, OCRFound: 1, RegistryFound: 1, ExactMatches: 1, NameInText: 1,
	}, r.Summary)

	assert.Equal(t, []string{"run-1:12345678/12345678_SRFW.pdf"}, sink.docs)
	assert.Equal(t, 4, sink.lines)
	require.Len(t, sink.runs, 1)
	assert.Same(t, r, sink.runs[0])

	uploads := f.ocr.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "12345678_SRFW.pdf", uploads[0].FileField)
	assert.Equal(t, []byte("%PDF-1.4 fake"), uploads[0].Data)
}

func TestRun_OnlyMatchingFilesAreProcessed(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{
		"app1/foo_SRFW.pdf": "a",
		"app2/bar.pdf":      "b",
	})
	f := newFixture(t)
	f.ocr.SetText("foo_SRFW.pdf", "Examiner\r\nJane Doe")
	f.registry.SetExaminer("app1", "Jane Doe")

	r, err := f.pipeline.Run(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, r.Applications, 3)
	assert.Len(t, r.Applications[1].Documents, 1)
	assert.Empty(t, r.Applications[2].Documents)
	assert.Contains(t, report.Text(r, false), "Parsed application: app2\n\n")

	assert.Len(t, f.ocr.Uploads(), 1)
	queries := f.registry.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "applId:app1", queries[0].SearchText)
}

func TestRun_FailuresCollapseToNA(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{
		"12345678/12345678_SRFW.pdf": "x",
	})
	f := newFixture(t)
	f.ocr.Respond(http.StatusInternalServerError, "boom")

	r, err := f.pipeline.Run(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, r.Err)

	doc := r.Applications[1].Documents[0]
	assert.Equal(t, apperrors.KindRemote, doc.OCRExaminer.Failure)
	assert.Equal(t, apperrors.KindNotFound, doc.RegistryExaminer.Failure)
	// both sides render as "NA", which compare equal
	assert.Equal(t, 100, doc.Ratio)
	assert.Empty(t, doc.Lines)

	require.Len(t, r.Lines, 1)
	placeholder := r.Lines[0]
	assert.Equal(t, 0, placeholder.LineNumber)
	assert.Empty(t, placeholder.Text)
	assert.Equal(t, "12345678", placeholder.ApplicationNumber)
	assert.Equal(t, "12345678_SRFW.pdf", placeholder.FileName)
	assert.Equal(t, "NA", placeholder.OCRExaminer)
	assert.Equal(t, "NA", placeholder.RegistryExaminer)
	assert.Equal(t, 100, placeholder.Ratio)
	assert.False(t, placeholder.IsExaminerName)

	text := report.Text(r, false)
	assert.Contains(t, text, "Examiner name from OCR API: NA\n")
	assert.Contains(t, text, "Examiner name from USPTO API: NA\n")

	diag := report.Text(r, true)
	assert.Contains(t, diag, "Examiner name from OCR API: NA [remote: ")
	assert.Contains(t, diag, "Examiner name from USPTO API: NA [not_found: ")
	assert.Contains(t, diag, "Exact matches: 0\n")
}

func TestRun_OCRWithoutLabelStillFillsTable(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{
		"12345678/12345678_SRFW.pdf": "x",
	})
	f := newFixture(t)
	f.ocr.SetText("12345678_SRFW.pdf", "Primary Examiner: Jane Doe\r\nJANE DOE\r\nJane Doe")
	f.registry.SetExaminer("12345678", "Jane Doe")

	r, err := f.pipeline.Run(context.Background(), root)
	require.NoError(t, err)

	doc := r.Applications[1].Documents[0]
	assert.Equal(t, apperrors.KindNotFound, doc.OCRExaminer.Failure)
	assert.Equal(t, 0, doc.Ratio)
	assert.True(t, doc.NameInText)

	require.Len(t, r.Lines, 3)
	assert.False(t, r.Lines[1].IsExaminerName)
	assert.True(t, r.Lines[2].IsExaminerName)
	assert.Equal(t, "NA", r.Lines[2].OCRExaminer)
}

func TestRun_MissingRoot(t *testing.T) {
	sink := &recordingSink{}
	f := newFixture(t, sink)

	r, err := f.pipeline.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Error(t, r.Err)
	assert.Equal(t, apperrors.KindIO, apperrors.KindOf(r.Err))
	assert.Equal(t, "NA", report.Text(r, false))

	assert.Empty(t, sink.docs)
	require.Len(t, sink.runs, 1)
	assert.True(t, sink.runs[0].Failed())
}

func TestRun_SinkFailuresAreReturned(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{
		"a/a_SRFW.pdf": "x",
		"b/b_SRFW.pdf": "y",
	})
	failing := &recordingSink{failDoc: errors.New("disk full"), failRun: errors.New("closed")}
	healthy := &recordingSink{}
	f := newFixture(t, failing, healthy)

	r, err := f.pipeline.Run(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "closed")
	assert.False(t, r.Failed())

	assert.Equal(t, []string{"run-1:a/a_SRFW.pdf", "run-1:b/b_SRFW.pdf"}, healthy.docs)
	assert.Len(t, healthy.runs, 1)
}

func TestRun_Cancelled(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{
		"a/a_SRFW.pdf": "x",
	})
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := f.pipeline.Run(ctx, root)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Err, context.Canceled)
	assert.Empty(t, f.ocr.Uploads())
}

// cancellingRegistry cancels the run while the first document is looked up.
type cancellingRegistry struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingRegistry) Examiner(context.Context, domain.ApplicationID) (string, error) {
	c.calls++
	c.cancel()
	return "Jane Doe", nil
}

func TestRun_CancelledMidRun(t *testing.T) {
	tests := []struct {
		name string
		apps []string
	}{
		{"within the last application", []string{"1"}},
		{"before the next application", []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := map[string]string{}
			for _, app := range tt.apps {
				files[app+"/1_SRFW.pdf"] = "x"
				files[app+"/2_SRFW.pdf"] = "y"
			}
			root := testutil.DocumentTree(t, files)
			sc, err := scanner.New(scanner.DefaultPattern, nil)
			require.NoError(t, err)
			resp := &domain.OCRResponse{ParsedResults: []domain.ParsedResult{{ParsedText: "Examiner\r\nJane Doe"}}}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			reg := &cancellingRegistry{cancel: cancel}
			sink := &recordingSink{}
			p := NewPipeline(sc, stubOCR{resp}, reg, DefaultOptions(), nil, sink)

			r, err := p.Run(ctx, root)
			require.NoError(t, err)

			assert.Equal(t, 1, reg.calls)
			assert.ErrorIs(t, r.Err, context.Canceled)
			assert.True(t, r.Failed())
			assert.True(t, r.Interrupted())
			assert.Equal(t, 1, r.Summary.Documents)
			require.Len(t, sink.runs, 1)
			assert.True(t, sink.runs[0].Failed())

			text := report.Text(r, false)
			assert.Contains(t, text, "Parsed file: 1_SRFW.pdf\nExaminer name from OCR API: Jane Doe\n")
			assert.NotContains(t, text, "2_SRFW.pdf")
		})
	}
}

type stubOCR struct{ resp *domain.OCRResponse }

func (s stubOCR) Parse(context.Context, string, []byte) (*domain.OCRResponse, error) {
	return s.resp, nil
}

type stubRegistry struct{ name string }

func (s stubRegistry) Examiner(context.Context, domain.ApplicationID) (string, error) {
	if s.name == "" {
		return "", apperrors.NotFound("registry examiner", "no documents")
	}
	return s.name, nil
}

type stubScanner struct{ apps []domain.Application }

func (s stubScanner) Scan(context.Context, string) ([]domain.Application, error) {
	return s.apps, nil
}

func TestRun_UnreadableDocument(t *testing.T) {
	apps := []domain.Application{{
		ID: "12345678",
		Documents: []domain.Document{{
			Application: "12345678",
			Name:        "gone_SRFW.pdf",
			Path:        filepath.Join(t.TempDir(), "gone_SRFW.pdf"),
		}},
	}}
	p := NewPipeline(stubScanner{apps}, stubOCR{}, stubRegistry{"Jane Doe"}, DefaultOptions(), nil)

	r, err := p.Run(context.Background(), "/data")
	require.NoError(t, err)

	doc := r.Applications[0].Documents[0]
	assert.Equal(t, apperrors.KindIO, doc.OCRExaminer.Failure)
	assert.Equal(t, "Jane Doe", doc.RegistryExaminer.Value)
	assert.Equal(t, 0, doc.Ratio)

	require.Len(t, r.Lines, 1)
	assert.Equal(t, 0, r.Lines[0].LineNumber)
	assert.Equal(t, "NA", r.Lines[0].OCRExaminer)
	assert.Equal(t, "Jane Doe", r.Lines[0].RegistryExaminer)
}

func TestRun_LineThreshold(t *testing.T) {
	root := testutil.DocumentTree(t, map[string]string{"1/1_SRFW.pdf": "x"})
	apps := []domain.Application{{
		ID:        "1",
		Documents: []domain.Document{{Application: "1", Name: "1_SRFW.pdf", Path: filepath.Join(root, "1", "1_SRFW.pdf")}},
	}}
	resp := &domain.OCRResponse{ParsedResults: []domain.ParsedResult{{ParsedText: "Examiner\r\nJane Do"}}}

	strict := NewPipeline(stubScanner{apps}, stubOCR{resp}, stubRegistry{"Jane Doe"}, Options{LineThreshold: 100}, nil)
	r, err := strict.Run(context.Background(), root)
	require.NoError(t, err)
	assert.False(t, r.Applications[0].Documents[0].NameInText)
	assert.Equal(t, 93, r.Applications[0].Documents[0].Ratio)

	loose := NewPipeline(stubScanner{apps}, stubOCR{resp}, stubRegistry{"Jane Doe"}, Options{LineThreshold: 90}, nil)
	r, err = loose.Run(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, r.Applications[0].Documents[0].NameInText)
}

func TestRun_AssignsRandomRunIDs(t *testing.T) {
	sc, err := scanner.New(scanner.DefaultPattern, nil)
	require.NoError(t, err)
	p := NewPipeline(sc, nil, nil, DefaultOptions(), nil)
	root := t.TempDir()

	first, err := p.Run(context.Background(), root)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, testutil.AnyUUID{}.Match(first.RunID), first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
}
