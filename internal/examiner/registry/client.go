// Package registry queries the patent application registry (USPTO PEDS) for
// bibliographic data, the examiner name in particular.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	"github.com/rgra/examiner-check/pkg/config"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
	"github.com/rgra/examiner-check/pkg/logger"
)

// DefaultURL is the public PEDS query endpoint.
const DefaultURL = "https://ped.uspto.gov/api/queries"

const maxErrorBody = 512

// Client looks up applications in the registry
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new registry client from configuration
func NewClient(cfg config.RegistryConfig, log *logger.Logger) *Client {
	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.OrNop(log).WithComponent("registry"),
	}
}

// Query is the search body sent to the registry
type Query struct {
	SearchText string `json:"searchText"`
	DF         string `json:"df"`
}

// Record is one registry document. Only the fields used here are decoded.
type Record struct {
	ApplicationID string `json:"applId"`
	PatentTitle   string `json:"patentTitle"`
	ExaminerName  string `json:"appExamName"`
	Status        string `json:"appStatus"`
}

type queryResponse struct {
	QueryResults *struct {
		SearchResponse struct {
			Response struct {
				NumFound int      `json:"numFound"`
				Docs     []Record `json:"docs"`
			} `json:"response"`
		} `json:"searchResponse"`
	} `json:"queryResults"`
}

// Lookup returns the registry records for an application number. No
// matching record is a not_found failure.
func (c *Client) Lookup(ctx context.Context, id domain.ApplicationID) ([]Record, error) {
	const op = "registry lookup"

	payload, err := json.Marshal(Query{SearchText: "applId:" + string(id), DF: "patentTitle"})
	if err != nil {
		return nil, apperrors.Parse(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Network(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("application", string(id)).Msg("querying registry")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Network(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, apperrors.Remote(op, &apperrors.StatusError{
			Operation:  "registry",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		})
	}

	var decoded queryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.Parse(op, err)
	}
	if decoded.QueryResults == nil {
		return nil, apperrors.NotFound(op, "response has no queryResults")
	}
	docs := decoded.QueryResults.SearchResponse.Response.Docs
	if len(docs) == 0 {
		return nil, apperrors.NotFound(op, "no documents for application "+string(id))
	}
	return docs, nil
}

// Examiner returns the examiner name of the first matching record.
func (c *Client) Examiner(ctx context.Context, id domain.ApplicationID) (string, error) {
	docs, err := c.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	name := docs[0].ExaminerName
	if name == "" {
		return "", apperrors.NotFound("registry examiner", "examiner name is empty")
	}
	return name, nil
}
