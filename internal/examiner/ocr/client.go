// Package ocr is a client for the OCR.space parse/image endpoint.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	"github.com/rgra/examiner-check/pkg/config"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
	"github.com/rgra/examiner-check/pkg/logger"
)

// DefaultURL is the public OCR.space endpoint.
const DefaultURL = "https://api.ocr.space/parse/image"

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

// Client sends documents to the OCR service
type Client struct {
	url        string
	apiKey     string
	language   string
	overlay    bool
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new OCR client from configuration
func NewClient(cfg config.OCRConfig, log *logger.Logger) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	language := cfg.Language
	if language == "" {
		language = "eng"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		url:        url,
		apiKey:     cfg.APIKey,
		language:   language,
		overlay:    cfg.Overlay,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.OrNop(log).WithComponent("ocr"),
	}
}

// Parse uploads data as a multipart form and decodes the recognition result.
// The file part is keyed by name.
func (c *Client) Parse(ctx context.Context, name string, data []byte) (*domain.OCRResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := [][2]string{
		{"isOverlayRequired", strconv.FormatBool(c.overlay)},
		{"apikey", c.apiKey},
		{"language", c.language},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, apperrors.IO("ocr write field", err)
		}
	}
	part, err := writer.CreateFormFile(name, name)
	if err != nil {
		return nil, apperrors.IO("ocr create form file", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, apperrors.IO("ocr write file data", err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.IO("ocr close multipart writer", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, apperrors.Network("ocr create request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debug().
		Str("file", name).
		Int("bytes", len(data)).
		Str("language", c.language).
		Msg("sending document to ocr service")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Network("ocr request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network("ocr read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Remote("ocr", &apperrors.StatusError{
			Operation:  "ocr",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       snippet(respBody),
		})
	}

	var result domain.OCRResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, apperrors.Parse("ocr decode response", err)
	}

	if result.IsErroredOnProcessing {
		msg := result.ErrorText()
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", result.OCRExitCode)
		}
		return nil, apperrors.Remote("ocr processing", apperrors.New(msg))
	}

	c.logger.Debug().
		Str("file", name).
		Int("blocks", len(result.ParsedResults)).
		Int("exit_code", result.OCRExitCode).
		Dur("elapsed", time.Since(start)).
		Msg("ocr response received")

	return &result, nil
}

func snippet(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody])
	}
	return string(b)
}
