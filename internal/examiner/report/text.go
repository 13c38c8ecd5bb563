// Package report renders run results: the plain-text report printed to
// stdout and the per-line table written as CSV or XLSX.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rgra/examiner-check/internal/examiner/domain"
)

// Text renders the report. A run that could not walk its root renders as
// "NA"; an interrupted run renders the entries it finished. In diagnostic
// mode failed names carry their failure kind and reason, and a summary block
// is appended.
func Text(r *domain.Report, diagnostic bool) string {
	var b strings.Builder
	_ = Write(&b, r, diagnostic)
	return b.String()
}

// Write is Text streamed to w.
func Write(w io.Writer, r *domain.Report, diagnostic bool) error {
	if r == nil {
		_, err := io.WriteString(w, domain.NotAvailable)
		return err
	}
	if r.Failed() && !r.Interrupted() {
		out := domain.NotAvailable
		if diagnostic {
			out = domain.Failed(r.Err).Diagnostic()
		}
		_, err := io.WriteString(w, out)
		return err
	}

	name := domain.NameResult.Display
	if diagnostic {
		name = domain.NameResult.Diagnostic
	}

	for _, app := range r.Applications {
		if _, err := fmt.Fprintf(w, "Parsed application: %s\n\n", app.ID); err != nil {
			return err
		}
		for _, doc := range app.Documents {
			if _, err := fmt.Fprintf(w,
				"Parsed file: %s\nExaminer name from OCR API: %s\nExaminer name from USPTO API: %s\nFuzzy match ratio: %d\n\n",
				doc.Document.Name,
				name(doc.OCRExaminer),
				name(doc.RegistryExaminer),
				doc.Ratio,
			); err != nil {
				return err
			}
		}
	}

	if diagnostic {
		return writeSummary(w, r)
	}
	return nil
}

func writeSummary(w io.Writer, r *domain.Report) error {
	s := r.Summary
	_, err := fmt.Fprintf(w,
		"Run: %s\nApplications: %d\nDocuments: %d\nOCR names found: %d\nUSPTO names found: %d\nExact matches: %d\nRegistry name in OCR text: %d\nDuration: %s\n",
		r.RunID,
		s.Applications,
		s.Documents,
		s.OCRFound,
		s.RegistryFound,
		s.ExactMatches,
		s.NameInText,
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	)
	if err != nil || !r.Interrupted() {
		return err
	}
	_, err = fmt.Fprintf(w, "Interrupted: %v\n", r.Err)
	return err
}
