package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// RecordedCall is one request received by FakeAPI
type RecordedCall struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Body          string
}

type fakeResponse struct {
	status int
	body   string
}

// FakeAPI is a stand-in for the remote REST API. Paths are relative to /api.
type FakeAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	calls     []RecordedCall
	responses map[string]fakeResponse
}

// NewFakeAPI starts a fake API server that is closed when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{responses: make(map[string]fakeResponse)}

	router := mux.NewRouter()
	router.PathPrefix("/api/").HandlerFunc(f.handle)
	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the API base URL, including the /api prefix
func (f *FakeAPI) URL() string {
	return f.Server.URL + "/api"
}

// Respond registers the status and JSON body returned for method and path
func (f *FakeAPI) Respond(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = fakeResponse{status: status, body: body}
}

// Calls returns a copy of the received requests
func (f *FakeAPI) Calls() []RecordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many requests were received
func (f *FakeAPI) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *FakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, "/api")

	f.mu.Lock()
	f.calls = append(f.calls, RecordedCall{
		Method:        r.Method,
		Path:          path,
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
		Body:          string(body),
	})
	resp, ok := f.responses[r.Method+" "+path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not Found"}`)
		return
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}
