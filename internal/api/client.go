package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iksnae/serenity-guest/internal"
)

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client

	// Store is required; its backend also holds the auth token
	Store *internal.GuestStore
	// Handlers defaults to DefaultHandlers(Store)
	Handlers *Registry

	Demo      bool
	DemoToken string
	// DemoMocks defaults to DefaultDemoMocks() when Demo is set
	DemoMocks *DemoMocks

	Registerer prometheus.Registerer
	// Transport replaces the HTTP transport at the bottom of the chain
	Transport Doer
	OnDemote  func()
}

// Client sends API requests through the auth and guest routing middleware
type Client struct {
	do       Doer
	network  Doer
	store    *internal.GuestStore
	handlers *Registry
	baseURL  string
	http     *HTTPTransport
}

// NewClient builds the chain AuthMiddleware(GuestRouting(transport))
func NewClient(opts Options) *Client {
	if opts.Handlers == nil {
		opts.Handlers = DefaultHandlers(opts.Store)
	}
	if opts.Demo && opts.DemoMocks == nil {
		opts.DemoMocks = DefaultDemoMocks()
	}

	transport := opts.Transport
	baseURL := opts.BaseURL
	var httpTransport *HTTPTransport
	if transport == nil {
		httpClient := opts.HTTPClient
		if httpClient == nil {
			timeout := opts.Timeout
			if timeout <= 0 {
				timeout = DefaultTimeout
			}
			httpClient = &http.Client{Timeout: timeout}
		}
		httpTransport = NewHTTPTransport(baseURL, httpClient)
		baseURL = httpTransport.BaseURL()
		transport = httpTransport.Do
	}

	tokens := opts.Store.Tokens()
	auth := AuthMiddleware(tokens, opts.Demo, opts.DemoToken)
	routing := GuestRouting(GuestRoutingOptions{
		Tokens:   tokens,
		Handlers: opts.Handlers,
		Demo:     opts.Demo,
		Mocks:    opts.DemoMocks,
		Metrics:  NewMetrics(opts.Registerer),
		OnDemote: opts.OnDemote,
	})

	return &Client{
		do:       Chain(transport, routing, auth),
		network:  Chain(transport, auth),
		store:    opts.Store,
		handlers: opts.Handlers,
		baseURL:  baseURL,
		http:     httpTransport,
	}
}

// Store returns the guest store the client answers from
func (c *Client) Store() *internal.GuestStore {
	return c.store
}

// Handlers returns the local handler registry
func (c *Client) Handlers() *Registry {
	return c.handlers
}

// BaseURL returns the remote API base, empty for a custom transport
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ErrNoHealthCheck is returned by Ping for clients with a custom transport
var ErrNoHealthCheck = errors.New("transport has no health check")

// Ping checks that the remote backend is reachable
func (c *Client) Ping(ctx context.Context) error {
	if c.http == nil {
		return ErrNoHealthCheck
	}
	return c.http.Ping(ctx)
}

// Do sends req through the full chain
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return c.do(ctx, req)
}

// Get sends a GET. path may carry its own query string.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	req := NewRequest(http.MethodGet, path, nil)
	if len(query) > 0 {
		if req.Query == nil {
			req.Query = url.Values{}
		}
		for k, vs := range query {
			for _, v := range vs {
				req.Query.Add(k, v)
			}
		}
	}
	return c.Do(ctx, req)
}

// Post sends a POST with a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, NewRequest(http.MethodPost, path, body))
}

// Put sends a PUT with a JSON body
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, NewRequest(http.MethodPut, path, body))
}

// PostJSON posts body straight to the remote API, skipping guest routing so
// an upload can never be answered locally
func (c *Client) PostJSON(ctx context.Context, path string, body interface{}) error {
	_, err := c.network(ctx, NewRequest(http.MethodPost, path, body))
	return err
}

// SyncGuestData uploads guest data for userID. It needs a stored token.
func (c *Client) SyncGuestData(ctx context.Context, userID string) internal.SyncResult {
	if c.store.IsGuest() {
		return internal.SyncResult{Success: false, Err: ErrNotAuthenticated}
	}
	return c.store.SyncWithServer(ctx, c, userID)
}
