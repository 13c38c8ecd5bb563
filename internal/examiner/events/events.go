// Package events publishes run progress to RabbitMQ.
package events

import (
	"context"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	"github.com/rgra/examiner-check/pkg/messaging"
)

// Publisher is satisfied by *messaging.Publisher
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Sink publishes one event per document and one per run
type Sink struct {
	publisher Publisher
}

// NewSink creates an event sink on top of publisher.
func NewSink(publisher Publisher) *Sink {
	return &Sink{publisher: publisher}
}

func (s *Sink) Name() string { return "events" }

// DocumentDone publishes examiner.document.matched.
func (s *Sink) DocumentDone(ctx context.Context, runID string, entry domain.DocumentEntry, lines []domain.LineRecord) error {
	ctx = messaging.WithCorrelationID(ctx, runID)
	return s.publisher.Publish(ctx, messaging.EventDocumentMatched, DocumentEvent(runID, entry, len(lines)))
}

// RunDone publishes examiner.run.completed.
func (s *Sink) RunDone(ctx context.Context, r *domain.Report) error {
	ctx = messaging.WithCorrelationID(ctx, r.RunID)
	return s.publisher.Publish(ctx, messaging.EventRunCompleted, RunEvent(r))
}

// DocumentEvent builds the payload for a processed document.
func DocumentEvent(runID string, entry domain.DocumentEntry, lines int) messaging.DocumentMatchedEvent {
	return messaging.DocumentMatchedEvent{
		RunID:             runID,
		ApplicationNumber: string(entry.Document.Application),
		FileName:          entry.Document.Name,
		Digest:            entry.Digest,
		Pages:             entry.Pages,
		OCRExaminer:       entry.OCRExaminer.Display(),
		OCRFailure:        string(entry.OCRExaminer.Failure),
		RegistryExaminer:  entry.RegistryExaminer.Display(),
		RegistryFailure:   string(entry.RegistryExaminer.Failure),
		Ratio:             entry.Ratio,
		NameInText:        entry.NameInText,
		Lines:             lines,
	}
}

// RunEvent builds the payload for a finished run.
func RunEvent(r *domain.Report) messaging.RunCompletedEvent {
	e := messaging.RunCompletedEvent{
		RunID:         r.RunID,
		Root:          r.Root,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Failed:        r.Failed(),
		Applications:  r.Summary.Applications,
		Documents:     r.Summary.Documents,
		OCRFound:      r.Summary.OCRFound,
		RegistryFound: r.Summary.RegistryFound,
		ExactMatches:  r.Summary.ExactMatches,
		NameInText:    r.Summary.NameInText,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}
