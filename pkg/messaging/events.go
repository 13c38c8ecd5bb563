package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventDocumentMatched = "examiner.document.matched"
	EventRunCompleted    = "examiner.run.completed"
)

// ExchangeExaminerEvents is the default exchange for run events.
const ExchangeExaminerEvents = "examiner.events"

// Event is the envelope of every published message
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// DocumentMatchedEvent is published after each processed document
type DocumentMatchedEvent struct {
	RunID             string `json:"run_id"`
	ApplicationNumber string `json:"application_number"`
	FileName          string `json:"file_name"`
	Digest            string `json:"digest,omitempty"`
	Pages             int    `json:"pages"`
	OCRExaminer       string `json:"ocr_examiner"`
	OCRFailure        string `json:"ocr_failure,omitempty"`
	RegistryExaminer  string `json:"registry_examiner"`
	RegistryFailure   string `json:"registry_failure,omitempty"`
	Ratio             int    `json:"ratio"`
	NameInText        bool   `json:"name_in_text"`
	Lines             int    `json:"lines"`
}

// RunCompletedEvent is published once per run
type RunCompletedEvent struct {
	RunID         string    `json:"run_id"`
	Root          string    `json:"root"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Failed        bool      `json:"failed"`
	Error         string    `json:"error,omitempty"`
	Applications  int       `json:"applications"`
	Documents     int       `json:"documents"`
	OCRFound      int       `json:"ocr_found"`
	RegistryFound int       `json:"registry_found"`
	ExactMatches  int       `json:"exact_matches"`
	NameInText    int       `json:"name_in_text"`
}
