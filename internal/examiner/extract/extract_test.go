package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

func response(texts ...string) *domain.OCRResponse {
	resp := &domain.OCRResponse{OCRExitCode: 1}
	for _, t := range texts {
		resp.ParsedResults = append(resp.ParsedResults, domain.ParsedResult{ParsedText: t})
	}
	return resp
}

func TestExaminer(t *testing.T) {
	tests := []struct {
		name     string
		resp     *domain.OCRResponse
		want     string
		wantKind apperrors.Kind
	}{
		{
			name: "name follows label",
			resp: response("Name\r\nJohn\r\nExaminer\r\nJane Doe"),
			want: "Jane Doe",
		},
		{
			name: "surrounding whitespace is trimmed",
			resp: response("Search Notes\r\n  Examiner \r\n\t SMITH, JOHN  \r\n"),
			want: "SMITH, JOHN",
		},
		{
			name: "first label wins",
			resp: response("Examiner\r\nFirst\r\nExaminer\r\nSecond"),
			want: "First",
		},
		{
			name: "empty following line is returned as is",
			resp: response("Examiner\r\n\r\nJane"),
			want: "",
		},
		{
			name:     "only first block is searched",
			resp:     response("Nothing here", "Examiner\r\nJane Doe"),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "label is last line",
			resp:     response("Name\r\nJohn\r\nExaminer"),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "no label",
			resp:     response("Name\r\nJohn\r\nJane Doe"),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "label match is case sensitive",
			resp:     response("EXAMINER\r\nJane Doe\r\nexaminer\r\nJohn"),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "label must be the whole line",
			resp:     response("Primary Examiner\r\nJane Doe\r\nExaminer: Jane"),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "lf only separators are not split",
			resp:     response("Examiner\nJane Doe"),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "no parsed results",
			resp:     response(),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "empty text",
			resp:     response(""),
			wantKind: apperrors.KindNotFound,
		},
		{
			name:     "nil response",
			resp:     nil,
			wantKind: apperrors.KindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Examiner(tt.resp)
			if tt.wantKind != apperrors.KindNone {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLines(t *testing.T) {
	resp := response("  Search Notes \r\n\r\nExaminer\r\nJane Doe\r\n", "", "Page 2\r\nEnd")

	assert.Equal(t, []string{"Search Notes", "Examiner", "Jane Doe", "Page 2", "End"}, Lines(resp))
	assert.Nil(t, Lines(nil))
}

func TestSplitLines_KeepsEmptyLines(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\r\n \r\nb"))
}
