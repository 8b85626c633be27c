package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
)

// RequestIDHeader carries the id assigned to each gateway request
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Server exposes the guest router over HTTP so a browser client can use it
// as its API base
type Server struct {
	client   *api.Client
	gatherer prometheus.Gatherer
	router   *mux.Router
	limiter  atomic.Pointer[rate.Limiter]
}

// NewServer creates a gateway in front of client. A nil gatherer serves the
// default registry on /metrics.
func NewServer(client *api.Client, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{client: client, gatherer: gatherer}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.PathPrefix("/api/").Handler(s.rateLimited(http.HandlerFunc(s.handleAPI)))
	return r
}

// SetRateLimit caps /api/ requests at perSecond with the given burst.
// A non-positive perSecond removes the cap.
func (s *Server) SetRateLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		s.limiter.Store(nil)
		return
	}
	if burst < 1 {
		burst = 1
	}
	s.limiter.Store(rate.NewLimiter(rate.Limit(perSecond), burst))
}

// rateLimited rejects requests over the limit with 429 instead of queueing them
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l := s.limiter.Load(); l != nil && !l.Allow() {
			requestLogger(r).Debug("Rate limited")
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"detail": "Too many requests. Please slow down."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler for the gateway
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		internal.LogInfo("Gateway listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway stopped: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		internal.LogInfo("Shutting down gateway")
		return srv.Shutdown(shutdownCtx)
	}
}

// Health is the body of GET /healthz
type Health struct {
	Status  string `json:"status"`
	Mode    string `json:"mode"`
	GuestID string `json:"guestId"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	store := s.client.Store()
	mode := "authenticated"
	if store.IsGuest() {
		mode = "guest"
	}
	writeJSON(w, http.StatusOK, Health{Status: "ok", Mode: mode, GuestID: store.GuestID()})
}

// handleAPI forwards /api/... through the guest router
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "failed to read request body"})
		return
	}

	req := api.NewRequest(r.Method, r.URL.Path, nil)
	req.Query = r.URL.Query()
	if len(body) > 0 {
		if !json.Valid(body) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "request body must be JSON"})
			return
		}
		req.Body = json.RawMessage(body)
	}

	ctx := r.Context()
	if token := bearerToken(r); token != "" {
		log = log.WithField("caller_token", true)
		ctx = api.WithCallerToken(ctx, token)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			log.WithField("status", apiErr.Status).Debug("Upstream error")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(apiErr.Status)
			_, _ = w.Write(apiErr.Body)
			return
		}
		log.WithError(err).Warn("Gateway request failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": api.UserMessage(err)})
		return
	}

	log.WithField("source", resp.Source).Debug("Answered")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Serenity-Source", string(resp.Source))
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	data := resp.Data
	if len(data) == 0 {
		data = []byte("null")
	}
	_, _ = w.Write(data)
}

// bearerToken returns the caller's bearer token. The demo token is not a
// session, so a caller sending it is treated as a guest.
func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < len("Bearer ") || !strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return ""
	}
	token := strings.TrimSpace(auth[len("Bearer "):])
	if token == api.DefaultDemoToken {
		return ""
	}
	return token
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.LogDebug("Failed to write response: %v", err)
	}
}

type requestIDKey struct{}

// requestIDMiddleware keeps a caller supplied request id or assigns one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestID returns the id assigned to the request in ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func requestLogger(r *http.Request) *logrus.Entry {
	return internal.Logger().WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
}
