package domain

import (
	"context"
	"errors"
	"time"
)

// Report is the outcome of one run over a root directory.
type Report struct {
	RunID      string    `json:"run_id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Err is set when the run could not walk the root at all, or when it was
	// cancelled before every document was processed.
	Err error `json:"-"`

	Applications []ApplicationEntry `json:"applications"`
	Lines        []LineRecord       `json:"-"`
	Summary      Summary            `json:"summary"`
}

// Summary aggregates document outcomes across the run
type Summary struct {
	Applications  int `json:"applications"`
	Documents     int `json:"documents"`
	OCRFound      int `json:"ocr_found"`
	RegistryFound int `json:"registry_found"`
	ExactMatches  int `json:"exact_matches"`
	NameInText    int `json:"name_in_text"`
}

// Failed reports whether the run could not be carried out in full.
func (r *Report) Failed() bool {
	return r.Err != nil
}

// Interrupted reports whether the run was cut short by cancellation. The
// entries processed before that are still valid.
func (r *Report) Interrupted() bool {
	return errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
}

// Finalize normalises timestamps to UTC and recomputes the summary from the
// entries. Entry order is left as visited.
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	s := Summary{Applications: len(r.Applications)}
	for _, app := range r.Applications {
		for _, doc := range app.Documents {
			s.Documents++
			if doc.OCRExaminer.OK() {
				s.OCRFound++
			}
			if doc.RegistryExaminer.OK() {
				s.RegistryFound++
			}
			if doc.OCRExaminer.OK() && doc.RegistryExaminer.OK() && doc.Ratio == 100 {
				s.ExactMatches++
			}
			if doc.NameInText {
				s.NameInText++
			}
		}
	}
	r.Summary = s
}
