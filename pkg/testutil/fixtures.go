package testutil

import (
	"fmt"
	"sync"

	"github.com/rgra/examiner-check/internal/examiner/domain"
)

// FixtureFactory creates test data with unique values
type FixtureFactory struct {
	mu  sync.Mutex
	seq int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) nextSeq() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

// ApplicationNumber returns a fresh eight digit application number.
func (f *FixtureFactory) ApplicationNumber() string {
	return fmt.Sprintf("%08d", 12000000+f.nextSeq())
}

// Line creates a line record for a fresh application. Options run in order.
func (f *FixtureFactory) Line(opts ...func(*domain.LineRecord)) domain.LineRecord {
	app := f.ApplicationNumber()
	l := domain.LineRecord{
		RunID:             "00000000-0000-0000-0000-000000000001",
		ApplicationNumber: app,
		DocumentNumber:    app + "_SRFW",
		FileName:          app + "_SRFW.pdf",
		Digest:            "digest-" + app,
		LineNumber:        1,
		Text:              "Examiner",
		LineRatio:         0,
		OCRExaminer:       "Jane Doe",
		RegistryExaminer:  "Jane Doe",
		Ratio:             100,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// DocumentLines creates one record per text line of a single document,
// numbered from 1.
func (f *FixtureFactory) DocumentLines(texts []string, opts ...func(*domain.LineRecord)) []domain.LineRecord {
	first := f.Line(opts...)
	lines := make([]domain.LineRecord, len(texts))
	for i, text := range texts {
		l := first
		l.LineNumber = i + 1
		l.Text = text
		lines[i] = l
	}
	return lines
}

// WithRunID sets the run ID
func WithRunID(id string) func(*domain.LineRecord) {
	return func(l *domain.LineRecord) {
		l.RunID = id
	}
}

// WithApplication sets the application and derived file names
func WithApplication(app string) func(*domain.LineRecord) {
	return func(l *domain.LineRecord) {
		l.ApplicationNumber = app
		l.DocumentNumber = app + "_SRFW"
		l.FileName = app + "_SRFW.pdf"
	}
}

// WithExaminerLine marks the record as the line holding the examiner name
func WithExaminerLine(text string) func(*domain.LineRecord) {
	return func(l *domain.LineRecord) {
		l.Text = text
		l.LineRatio = 100
		l.IsExaminerName = true
	}
}
