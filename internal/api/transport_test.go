package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/iksnae/serenity-guest/testutil"
)

func TestHTTPTransport_Do(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	fake.Respond(http.MethodGet, "/chatbot/sessions", http.StatusOK, `{"sessions":[]}`)
	fake.Respond(http.MethodPost, "/empty", http.StatusNoContent, ``)
	fake.Respond(http.MethodGet, "/text", http.StatusOK, `plain`)

	tr := NewHTTPTransport(fake.URL()+"/", nil)
	ctx := context.Background()

	resp, err := tr.Do(ctx, NewRequest(http.MethodGet, "/chatbot/sessions", nil))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.Source != SourceNetwork || string(resp.Data) != `{"sessions":[]}` {
		t.Errorf("response = %+v", resp)
	}

	resp, err = tr.Do(ctx, NewRequest(http.MethodPost, "/empty", map[string]int{"a": 1}))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !resp.IsNull() {
		t.Errorf("empty body should decode as null, got %q", resp.Data)
	}

	resp, err = tr.Do(ctx, NewRequest(http.MethodGet, "/text", nil))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var s string
	if err := resp.Decode(&s); err != nil || s != "plain" {
		t.Errorf("text body = %q, err = %v", s, err)
	}

	_, err = tr.Do(ctx, NewRequest(http.MethodGet, "/missing", nil))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Detail() != "Not Found" {
		t.Errorf("missing path error = %v", err)
	}
}

func TestHTTPTransport_Cancelled(t *testing.T) {
	fake := testutil.NewFakeAPI(t)
	tr := NewHTTPTransport(fake.URL(), &http.Client{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Do(ctx, NewRequest(http.MethodGet, "/chatbot/sessions", nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if fake.CallCount() != 0 {
		t.Error("cancelled request should not reach the server")
	}
}

func TestHTTPTransport_HealthURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000/api", "http://localhost:8000/health"},
		{"http://localhost:8000/api/", "http://localhost:8000/health"},
		{"https://serenity.example", "https://serenity.example/health"},
	}
	for _, tt := range tests {
		if got := NewHTTPTransport(tt.base, nil).HealthURL(); got != tt.want {
			t.Errorf("HealthURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestClient_Ping(t *testing.T) {
	env := newTestEnv(t, false)
	// The fake API only serves /api/..., so /health is unreachable there.
	if err := env.client.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail when /health is not served")
	}

	custom := NewClient(Options{
		Store: env.store,
		Transport: func(context.Context, *Request) (*Response, error) {
			return nil, errors.New("unused")
		},
	})
	if err := custom.Ping(context.Background()); !errors.Is(err, ErrNoHealthCheck) {
		t.Errorf("Ping() with custom transport = %v", err)
	}
}
