package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
	"github.com/iksnae/serenity-guest/testutil"
)

type testGateway struct {
	gw     *Server
	server *httptest.Server
	store  *internal.GuestStore
	fake   *testutil.FakeAPI
}

func newTestGateway(t *testing.T) *testGateway {
	t.Helper()
	backend := internal.NewMemoryBackend()
	t.Cleanup(func() { backend.Close() })
	store := internal.NewGuestStore(backend)
	fake := testutil.NewFakeAPI(t)

	reg := prometheus.NewRegistry()
	client := api.NewClient(api.Options{BaseURL: fake.URL(), Store: store, Registerer: reg})
	gw := NewServer(client, reg)
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)

	return &testGateway{gw: gw, server: srv, store: store, fake: fake}
}

func (g *testGateway) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	return g.doWithHeader(t, method, path, body, nil)
}

func (g *testGateway) doWithHeader(t *testing.T, method, path, body string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, g.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestServer_GuestChat(t *testing.T) {
	g := newTestGateway(t)

	resp, body := g.do(t, http.MethodPost, "/api/chatbot/chat", `{"message":"I'm so stressed about exams"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("X-Serenity-Source"); got != string(api.SourceLocal) {
		t.Errorf("source header = %q", got)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	var chat api.ChatResponse
	if err := json.Unmarshal([]byte(body), &chat); err != nil {
		t.Fatalf("invalid JSON %q: %v", body, err)
	}
	if chat.Intent != string(api.IntentAcademic) {
		t.Errorf("Intent = %q", chat.Intent)
	}
	if g.fake.CallCount() != 0 {
		t.Error("guest chat reached the remote API")
	}
}

func TestServer_CallerTokenGoesUpstream(t *testing.T) {
	g := newTestGateway(t)
	g.fake.Respond(http.MethodPost, "/chatbot/chat", http.StatusOK, `{"response":"from server","session_id":"s1","intent":"general","coping_strategy":null}`)

	header := http.Header{"Authorization": {"Bearer browser-token"}}
	resp, body := g.doWithHeader(t, http.MethodPost, "/api/chatbot/chat", `{"message":"I feel anxious"}`, header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("X-Serenity-Source"); got != string(api.SourceNetwork) {
		t.Errorf("source header = %q, want %q", got, api.SourceNetwork)
	}
	calls := g.fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("remote API saw %d calls, want 1", len(calls))
	}
	if calls[0].Authorization != "Bearer browser-token" {
		t.Errorf("forwarded Authorization = %q", calls[0].Authorization)
	}
	if n := len(g.store.GetChatSessions()); n != 0 {
		t.Errorf("guest store holds %d sessions for an authenticated caller", n)
	}
	if got := g.store.GetWellnessPoints().Points; got != 0 {
		t.Errorf("guest points = %d, want 0", got)
	}
}

func TestServer_WithoutCallerTokenStaysLocal(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
	}{
		{"no header", nil},
		{"empty bearer", http.Header{"Authorization": {"Bearer "}}},
		{"demo token", http.Header{"Authorization": {"Bearer " + api.DefaultDemoToken}}},
		{"basic auth", http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t)
			resp, body := g.doWithHeader(t, http.MethodPost, "/api/chatbot/chat", `{"message":"I feel anxious"}`, tt.header)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
			}
			if got := resp.Header.Get("X-Serenity-Source"); got != string(api.SourceLocal) {
				t.Errorf("source header = %q, want %q", got, api.SourceLocal)
			}
			if g.fake.CallCount() != 0 {
				t.Errorf("remote API saw %d calls", g.fake.CallCount())
			}
			if n := len(g.store.GetChatSessions()); n != 1 {
				t.Errorf("guest store holds %d sessions, want 1", n)
			}
		})
	}
}

func TestServer_CallerTokenRejected(t *testing.T) {
	g := newTestGateway(t)
	if err := g.store.Tokens().SetToken("gateway-token"); err != nil {
		t.Fatal(err)
	}
	g.fake.Respond(http.MethodGet, "/gamification/points", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	header := http.Header{"Authorization": {"Bearer expired-token"}}
	resp, body := g.doWithHeader(t, http.MethodGet, "/api/gamification/points", "", header)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401, body = %s", resp.StatusCode, body)
	}
	if got := g.store.Tokens().Token(); got != "gateway-token" {
		t.Errorf("stored token = %q, want it untouched", got)
	}
}

func TestServer_ForwardsUpstreamErrors(t *testing.T) {
	g := newTestGateway(t)
	if err := g.store.Tokens().SetToken("real-token"); err != nil {
		t.Fatal(err)
	}
	g.fake.Respond(http.MethodGet, "/gamification/leaderboard", http.StatusForbidden, `{"detail":"nope"}`)

	resp, body := g.do(t, http.MethodGet, "/api/gamification/leaderboard", "")
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(body, "nope") {
		t.Errorf("status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestServer_RejectsInvalidJSON(t *testing.T) {
	g := newTestGateway(t)
	resp, _ := g.do(t, http.MethodPost, "/api/chatbot/chat", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	g := newTestGateway(t)

	resp, body := g.do(t, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	var health Health
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatal(err)
	}
	if health.Mode != "guest" || health.GuestID != g.store.GuestID() {
		t.Errorf("health = %+v", health)
	}

	g.do(t, http.MethodGet, "/api/gamification/points", "")
	resp, body = g.do(t, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	want := `serenity_guest_requests_total{method="GET",path="/gamification/points",source="local"} 1`
	if !strings.Contains(body, want) {
		t.Errorf("metrics missing %q\n%s", want, body)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	const given = "3f1c1a52-2b6e-4d7e-9d55-6f3f7e8e2a10"
	var seen string
	h := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, given)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != given || rec.Header().Get(RequestIDHeader) != given {
		t.Errorf("valid request id not kept: seen %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid" || seen == "" {
		t.Errorf("invalid request id should be replaced, got %q", seen)
	}
}

func TestServer_RateLimit(t *testing.T) {
	g := newTestGateway(t)
	g.gw.SetRateLimit(0.001, 1)

	if resp, body := g.do(t, http.MethodGet, "/api/gamification/points", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d, body = %s", resp.StatusCode, body)
	}
	resp, _ := g.do(t, http.MethodGet, "/api/gamification/points", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	// health is never limited
	if resp, _ := g.do(t, http.MethodGet, "/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	g.gw.SetRateLimit(0, 0)
	if resp, _ := g.do(t, http.MethodGet, "/api/gamification/points", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("status after removing the limit = %d", resp.StatusCode)
	}
}
