package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// OCRPath and RegistryPath are the routes served by the fakes.
const (
	OCRPath      = "/parse/image"
	RegistryPath = "/api/queries"
)

// OCRUpload is one multipart request captured by FakeOCR.
type OCRUpload struct {
	Fields    map[string]string
	FileField string
	FileName  string
	Data      []byte
}

// FakeOCR imitates the OCR.space parse/image endpoint. Uploaded files are
// answered with the text registered for their filename, or with an empty
// result when none is registered.
type FakeOCR struct {
	Server *httptest.Server

	mu      sync.Mutex
	texts   map[string]string
	uploads []OCRUpload
	status  int
	body    string
}

// NewFakeOCR starts a fake OCR service that is closed with the test.
func NewFakeOCR(t testing.TB) *FakeOCR {
	t.Helper()
	f := &FakeOCR{texts: make(map[string]string)}

	r := chi.NewRouter()
	r.Post(OCRPath, f.handle)
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the endpoint to configure the OCR client with.
func (f *FakeOCR) URL() string {
	return f.Server.URL + OCRPath
}

// SetText registers the recognised text for an uploaded filename.
func (f *FakeOCR) SetText(fileName, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[fileName] = text
}

// Respond makes every following request return status and a raw body.
func (f *FakeOCR) Respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

// Uploads returns the captured requests in arrival order.
func (f *FakeOCR) Uploads() []OCRUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]OCRUpload(nil), f.uploads...)
}

func (f *FakeOCR) handle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	upload := OCRUpload{Fields: make(map[string]string)}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			upload.Fields[k] = v[0]
		}
	}
	for field, headers := range r.MultipartForm.File {
		if len(headers) == 0 {
			continue
		}
		file, err := headers[0].Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		file.Close()
		upload.FileField = field
		upload.FileName = headers[0].Filename
		upload.Data = data
		break
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, upload)
	status, body := f.status, f.body
	text, ok := f.texts[upload.FileName]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}

	resp := map[string]any{
		"OCRExitCode":                  1,
		"IsErroredOnProcessing":        false,
		"ProcessingTimeInMilliseconds": "42",
		"ParsedResults":                []any{},
	}
	if ok {
		resp["ParsedResults"] = []any{
			map[string]any{"ParsedText": text, "FileParseExitCode": 1},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RegistryQuery is one search body captured by FakeRegistry.
type RegistryQuery struct {
	SearchText string `json:"searchText"`
	DF         string `json:"df"`
}

// FakeRegistry imitates the patent registry query endpoint. Known
// application numbers answer with one document; unknown ones with no docs.
type FakeRegistry struct {
	Server *httptest.Server

	mu        sync.Mutex
	examiners map[string]string
	queries   []RegistryQuery
	status    int
	body      string
}

// NewFakeRegistry starts a fake registry that is closed with the test.
func NewFakeRegistry(t testing.TB) *FakeRegistry {
	t.Helper()
	f := &FakeRegistry{examiners: make(map[string]string)}

	r := chi.NewRouter()
	r.Post(RegistryPath, f.handle)
	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the endpoint to configure the registry client with.
func (f *FakeRegistry) URL() string {
	return f.Server.URL + RegistryPath
}

// SetExaminer registers the examiner of an application.
func (f *FakeRegistry) SetExaminer(applicationID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.examiners[applicationID] = name
}

// Respond makes every following request return status and a raw body.
func (f *FakeRegistry) Respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

// Queries returns the captured search bodies in arrival order.
func (f *FakeRegistry) Queries() []RegistryQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RegistryQuery(nil), f.queries...)
}

func (f *FakeRegistry) handle(w http.ResponseWriter, r *http.Request) {
	var q RegistryQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := strings.TrimPrefix(q.SearchText, "applId:")

	f.mu.Lock()
	f.queries = append(f.queries, q)
	status, body := f.status, f.body
	name, ok := f.examiners[id]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}

	docs := []any{}
	if ok {
		docs = append(docs, map[string]any{
			"applId":      id,
			"patentTitle": "TEST APPLICATION " + id,
			"appExamName": name,
			"appStatus":   "Patented Case",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queryResults": map[string]any{
			"searchResponse": map[string]any{
				"response": map[string]any{
					"numFound": len(docs),
					"start":    0,
					"docs":     docs,
				},
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
