package api

import (
	"context"
	"net/http"

	"github.com/iksnae/serenity-guest/internal"
)

// Doer performs a request
type Doer func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps a Doer
type Middleware func(next Doer) Doer

// Chain wraps base with mws. The last middleware is the outermost.
func Chain(base Doer, mws ...Middleware) Doer {
	for _, mw := range mws {
		base = mw(base)
	}
	return base
}

type callerTokenKey struct{}

// WithCallerToken marks ctx as carrying a bearer token from the caller, such
// as a browser talking to the gateway. The token is forwarded upstream and the
// request is never answered from the guest store.
func WithCallerToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, callerTokenKey{}, token)
}

// CallerToken returns the token set by WithCallerToken, or ""
func CallerToken(ctx context.Context) string {
	token, _ := ctx.Value(callerTokenKey{}).(string)
	return token
}

// AuthMiddleware attaches the caller's token if the context carries one,
// otherwise the stored bearer token. With neither and demo mode on, the demo
// token is attached instead.
func AuthMiddleware(tokens *internal.TokenStore, demo bool, demoToken string) Middleware {
	if demoToken == "" {
		demoToken = DefaultDemoToken
	}
	return func(next Doer) Doer {
		return func(ctx context.Context, req *Request) (*Response, error) {
			token := CallerToken(ctx)
			if token == "" {
				token = tokens.Token()
			}
			if req.Header == nil {
				req.Header = make(http.Header)
			}
			switch {
			case token != "":
				req.Header.Set("Authorization", "Bearer "+token)
			case demo:
				req.Header.Set("Authorization", "Bearer "+demoToken)
			}
			internal.LogDebug("[API Request] %s %s hasToken=%t demo=%t", req.Method, req.PathWithQuery(), token != "", demo)
			return next(ctx, req)
		}
	}
}

// GuestRoutingOptions configures GuestRouting
type GuestRoutingOptions struct {
	Tokens   *internal.TokenStore
	Handlers *Registry
	Demo     bool
	Mocks    *DemoMocks
	Metrics  *Metrics
	// OnDemote runs after a 401 removed the stored token
	OnDemote func()
}

// GuestRouting answers requests locally while no token is stored, and drops
// back to guest mode when the remote API rejects the token.
func GuestRouting(opts GuestRoutingOptions) Middleware {
	router := &guestRouter{opts: opts}
	return func(next Doer) Doer {
		return func(ctx context.Context, req *Request) (*Response, error) {
			return router.do(ctx, req, next)
		}
	}
}

type guestRouter struct {
	opts GuestRoutingOptions
}

func (g *guestRouter) do(ctx context.Context, req *Request, next Doer) (*Response, error) {
	if CallerToken(ctx) != "" {
		return g.forwardCaller(ctx, req, next)
	}
	if !g.opts.Tokens.HasToken() {
		if resp, ok := g.answerLocally(ctx, req); ok {
			return resp, nil
		}
		if resp, ok := g.answerDemo(req); ok {
			return resp, nil
		}
	}

	resp, err := next(ctx, req)
	if err == nil {
		g.opts.Metrics.observe(SourceNetwork, req.Method, g.label(req))
		internal.LogDebug("[API Response] %s %s status=%d", req.Method, req.Path, resp.Status)
		return resp, nil
	}
	if !IsUnauthorized(err) {
		internal.LogDebug("[API Error] %s %s: %v", req.Method, req.Path, err)
		return nil, err
	}

	internal.LogWarn("Session rejected by server for %s %s, switching to guest mode", req.Method, req.Path)
	if clearErr := g.opts.Tokens.ClearToken(); clearErr != nil {
		internal.LogError("Failed to remove rejected token: %v", clearErr)
	}
	g.opts.Metrics.demoted()
	if g.opts.OnDemote != nil {
		g.opts.OnDemote()
	}

	if resp, ok := g.answerLocally(ctx, req); ok {
		return resp, nil
	}
	if g.opts.Demo {
		g.opts.Metrics.observe(SourceDemo, req.Method, g.label(req))
		return &Response{Data: []byte("null"), Status: http.StatusOK, Source: SourceDemo}, nil
	}
	return nil, err
}

// forwardCaller sends a request made with the caller's own token upstream.
// A 401 goes back to the caller; the stored token belongs to someone else and
// stays untouched.
func (g *guestRouter) forwardCaller(ctx context.Context, req *Request, next Doer) (*Response, error) {
	resp, err := next(ctx, req)
	if err != nil {
		internal.LogDebug("[API Error] %s %s (caller token): %v", req.Method, req.Path, err)
		return nil, err
	}
	g.opts.Metrics.observe(SourceNetwork, req.Method, g.label(req))
	return resp, nil
}

func (g *guestRouter) answerLocally(ctx context.Context, req *Request) (*Response, bool) {
	h, tmpl, vars, ok := g.opts.Handlers.Match(req.Method, req.Path)
	if !ok {
		return nil, false
	}
	req.Vars = vars
	internal.LogDebug("[Guest Mode] Handling %s %s locally", req.Method, req.Path)
	resp := h(ctx, req)
	g.opts.Metrics.observe(SourceLocal, req.Method, tmpl)
	return resp, true
}

func (g *guestRouter) answerDemo(req *Request) (*Response, bool) {
	if !g.opts.Demo {
		return nil, false
	}
	resp, ok := g.opts.Mocks.Lookup(req)
	if !ok {
		return nil, false
	}
	internal.LogDebug("[Demo Mode] Mocked %s %s", req.Method, req.PathWithQuery())
	label := req.Path
	if challengeCompletePath.MatchString(req.Path) {
		label = "/gamification/challenges/{id}/complete"
	}
	g.opts.Metrics.observe(SourceDemo, req.Method, label)
	return resp, true
}

// label keeps the metrics path label to registered templates
func (g *guestRouter) label(req *Request) string {
	if _, tmpl, _, ok := g.opts.Handlers.Match(req.Method, req.Path); ok {
		return tmpl
	}
	return "other"
}
