// Package extract pulls text lines and the examiner name out of OCR output.
package extract

import (
	"strings"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

// ExaminerToken is the label line that precedes the examiner name on a
// search-notes form.
const ExaminerToken = "Examiner"

// LineSeparator is what the OCR service puts between lines.
const LineSeparator = "\r\n"

// Examiner returns the line following the first line exactly equal to
// ExaminerToken in the first parsed-text block. The match is exact and
// case-sensitive after trimming.
func Examiner(resp *domain.OCRResponse) (string, error) {
	const op = "ocr examiner"

	if resp == nil {
		return "", apperrors.Parse(op, apperrors.New("no ocr response"))
	}
	if len(resp.ParsedResults) == 0 {
		return "", apperrors.NotFound(op, "no parsed results")
	}
	text := resp.ParsedResults[0].ParsedText
	if text == "" {
		return "", apperrors.NotFound(op, "empty parsed text")
	}

	lines := SplitLines(text)
	for i, line := range lines {
		if line != ExaminerToken {
			continue
		}
		if i+1 >= len(lines) {
			return "", apperrors.NotFound(op, "examiner label is the last line")
		}
		return lines[i+1], nil
	}
	return "", apperrors.NotFound(op, "no examiner label line")
}

// SplitLines splits OCR text on LineSeparator and trims each line. Empty
// lines are kept so positions match the source text.
func SplitLines(text string) []string {
	parts := strings.Split(text, LineSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Lines returns every non-empty trimmed line of every parsed-text block, in
// order.
func Lines(resp *domain.OCRResponse) []string {
	if resp == nil {
		return nil
	}
	var out []string
	for _, block := range resp.ParsedResults {
		if block.ParsedText == "" {
			continue
		}
		for _, line := range SplitLines(block.ParsedText) {
			if line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}
