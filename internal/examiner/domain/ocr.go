package domain

import (
	"encoding/json"
	"strings"
)

// OCRResponse mirrors the OCR.space parse/image response.
// See https://ocr.space/OCRAPI
type OCRResponse struct {
	ParsedResults                []ParsedResult  `json:"ParsedResults"`
	OCRExitCode                  int             `json:"OCRExitCode"`
	IsErroredOnProcessing        bool            `json:"IsErroredOnProcessing"`
	ErrorMessage                 json.RawMessage `json:"ErrorMessage,omitempty"`
	ErrorDetails                 json.RawMessage `json:"ErrorDetails,omitempty"`
	ProcessingTimeInMilliseconds string          `json:"ProcessingTimeInMilliseconds"`
	SearchablePDFURL             string          `json:"SearchablePDFURL,omitempty"`
}

// ParsedResult is the text of one page or region.
type ParsedResult struct {
	ParsedText        string `json:"ParsedText"`
	FileParseExitCode int    `json:"FileParseExitCode"`
	ErrorMessage      string `json:"ErrorMessage"`
	ErrorDetails      string `json:"ErrorDetails"`
}

// ErrorText flattens ErrorMessage, which the service sends either as a
// string or as a list of strings.
func (r *OCRResponse) ErrorText() string {
	if len(r.ErrorMessage) == 0 {
		return ""
	}
	var one string
	if err := json.Unmarshal(r.ErrorMessage, &one); err == nil {
		return strings.TrimSpace(one)
	}
	var many []string
	if err := json.Unmarshal(r.ErrorMessage, &many); err == nil {
		return strings.TrimSpace(strings.Join(many, "; "))
	}
	return strings.TrimSpace(string(r.ErrorMessage))
}
