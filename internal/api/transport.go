package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where the backend serves its API during development
	DefaultBaseURL = "http://localhost:8000/api"
	// DefaultTimeout allows the server time to run the chat model
	DefaultTimeout = 20 * time.Second

	maxResponseBytes = 10 << 20
)

// HTTPTransport is the network Doer at the bottom of the chain
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport creates a transport for baseURL. A nil client gets one
// with DefaultTimeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// BaseURL returns the API base the transport sends to
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Do sends req and decodes the reply into a Response. Non-2xx replies
// become *APIError.
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	payload, err := req.BodyJSON()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.PathWithQuery(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   data,
		}
	}

	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		data = []byte("null")
	case !json.Valid(data):
		// Plain text replies are carried as a JSON string
		data, _ = json.Marshal(string(data))
	}

	return &Response{Data: data, Status: resp.StatusCode, Source: SourceNetwork}, nil
}

// HealthURL returns the backend health endpoint, which is served outside /api
func (t *HTTPTransport) HealthURL() string {
	return strings.TrimSuffix(t.baseURL, "/api") + "/health"
}

// Ping checks that the backend answers its health endpoint
func (t *HTTPTransport) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.HealthURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET /health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{Method: http.MethodGet, Path: "/health", Status: resp.StatusCode}
	}
	return nil
}
