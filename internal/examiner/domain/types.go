package domain

import (
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

// NotAvailable is printed wherever a name could not be obtained.
const NotAvailable = "NA"

// ApplicationID is a patent application number, taken from the folder path
// relative to the scan root ("." for the root itself).
type ApplicationID string

// Application is one visited directory and the matching documents in it
type Application struct {
	ID        ApplicationID
	Dir       string
	Documents []Document
}

// Document is a search-notes file selected by the filename pattern
type Document struct {
	Application ApplicationID
	Name        string
	Path        string
	Size        int64
}

// Number returns the document number: the filename without its extension.
func (d Document) Number() string {
	return strings.TrimSuffix(d.Name, filepath.Ext(d.Name))
}

// NameResult is an examiner name or the reason it is missing.
type NameResult struct {
	Value   string         `json:"value,omitempty"`
	Failure apperrors.Kind `json:"failure,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// Found wraps a successfully obtained name.
func Found(name string) NameResult {
	return NameResult{Value: name}
}

// Failed records why a name is missing. A nil error is treated as an
// unexplained failure so the result is never mistaken for success.
func Failed(err error) NameResult {
	if err == nil {
		return NameResult{Failure: apperrors.KindUnknown, Reason: "no name"}
	}
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindNone {
		kind = apperrors.KindUnknown
	}
	return NameResult{Failure: kind, Reason: err.Error()}
}

// OK reports whether a name was obtained.
func (r NameResult) OK() bool {
	return r.Failure == apperrors.KindNone
}

// Display returns the name, or NotAvailable on failure.
func (r NameResult) Display() string {
	if !r.OK() {
		return NotAvailable
	}
	return r.Value
}

// Diagnostic is Display plus the failure kind and reason.
func (r NameResult) Diagnostic() string {
	if r.OK() {
		return r.Value
	}
	return NotAvailable + " [" + string(r.Failure) + ": " + r.Reason + "]"
}

// DocumentEntry is the outcome of processing one document
type DocumentEntry struct {
	Document         Document      `json:"document"`
	Pages            int           `json:"pages"`
	Digest           string        `json:"digest,omitempty"`
	Lines            []string      `json:"lines,omitempty"`
	OCRExaminer      NameResult    `json:"ocr_examiner"`
	RegistryExaminer NameResult    `json:"registry_examiner"`
	Ratio            int           `json:"ratio"`
	NameInText       bool          `json:"name_in_text"`
	Duration         time.Duration `json:"duration"`
}

// ApplicationEntry groups the document entries of one visited directory
type ApplicationEntry struct {
	ID        ApplicationID   `json:"id"`
	Documents []DocumentEntry `json:"documents"`
}

// LineRecord is one row of the extracted-text table: a single OCR line of a
// single document together with the document-level comparison. A document
// without OCR text gets one row with LineNumber 0 and empty Text.
type LineRecord struct {
	RunID             string `json:"run_id" db:"run_id"`
	ApplicationNumber string `json:"application_number" db:"application_number"`
	DocumentNumber    string `json:"document_number" db:"document_number"`
	FileName          string `json:"file_name" db:"file_name"`
	Digest            string `json:"digest" db:"digest"`
	LineNumber        int    `json:"line_number" db:"line_number"`
	Text              string `json:"text" db:"text"`
	LineRatio         int    `json:"line_ratio" db:"line_ratio"`
	IsExaminerName    bool   `json:"is_examiner_name" db:"is_examiner_name"`
	OCRExaminer       string `json:"ocr_examiner" db:"ocr_examiner"`
	RegistryExaminer  string `json:"registry_examiner" db:"registry_examiner"`
	Ratio             int    `json:"ratio" db:"ratio"`
}

// LineRecordHeader is the column order used by the table exporters.
var LineRecordHeader = []string{
	"application_number",
	"document_number",
	"file_name",
	"line_number",
	"text",
	"line_ratio",
	"is_examiner_name",
	"ocr_examiner",
	"registry_examiner",
	"ratio",
}
