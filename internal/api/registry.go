package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// HandlerFunc answers a request locally. Local handlers never fail; problems
// persisting data are logged and the handler still replies.
type HandlerFunc func(ctx context.Context, req *Request) *Response

// Registry maps (method, path template) pairs to local handlers. Matching is
// delegated to a mux router that never serves HTTP itself.
type Registry struct {
	router    *mux.Router
	handlers  map[*mux.Route]HandlerFunc
	templates []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		router:   mux.NewRouter(),
		handlers: make(map[*mux.Route]HandlerFunc),
	}
}

// matchOnly lets mux clear a method mismatch from an earlier route when a
// later route with the same path matches.
var matchOnly = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

// Handle registers h for method and a mux path template such as
// "/chatbot/history/{sessionId}"
func (r *Registry) Handle(method, path string, h HandlerFunc) {
	route := r.router.NewRoute().Path(path).Methods(method).Handler(matchOnly)
	r.handlers[route] = h
	r.templates = append(r.templates, method+" "+path)
}

// Routes lists the registered "METHOD template" pairs in registration order
func (r *Registry) Routes() []string {
	out := make([]string, len(r.templates))
	copy(out, r.templates)
	return out
}

// Match finds the handler for method and path. It returns the route template
// and any path variables.
func (r *Registry) Match(method, path string) (HandlerFunc, string, map[string]string, bool) {
	if r == nil {
		return nil, "", nil, false
	}
	req := &http.Request{Method: method, URL: &url.URL{Path: path}}
	var m mux.RouteMatch
	if !r.router.Match(req, &m) || m.MatchErr != nil || m.Route == nil {
		return nil, "", nil, false
	}
	h, ok := r.handlers[m.Route]
	if !ok {
		return nil, "", nil, false
	}
	tmpl, _ := m.Route.GetPathTemplate()
	return h, tmpl, m.Vars, true
}

// Has reports whether a handler is registered for method and path
func (r *Registry) Has(method, path string) bool {
	_, _, _, ok := r.Match(method, path)
	return ok
}
