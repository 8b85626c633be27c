package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/internal/api"
	"github.com/iksnae/serenity-guest/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

// app is the per-command wiring of storage, auth state and the API client
type app struct {
	cfg     *config.Config
	backend internal.Backend
	store   *internal.GuestStore
	auth    *internal.AuthState
	client  *api.Client
}

// openApp opens the configured backend and builds the client over it.
// reg may be nil when metrics are not exported.
func openApp(reg prometheus.Registerer) (*app, error) {
	cfg := appConfig
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	backend, err := internal.OpenBackend(cfg.BackendOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err)
	}

	var mocks *api.DemoMocks
	if cfg.Demo && cfg.DemoMocks != "" {
		mocks, err = api.LoadDemoMocks(cfg.DemoMocks)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
	}

	store := internal.NewGuestStore(backend)
	auth := internal.NewAuthState(store.Tokens())
	client := api.NewClient(api.Options{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.Timeout,
		Store:      store,
		Demo:       cfg.Demo,
		DemoToken:  cfg.DemoToken,
		DemoMocks:  mocks,
		Registerer: reg,
		OnDemote: func() {
			internal.LogWarn("Your session expired. Continuing in guest mode.")
			auth.StartGuestSession()
		},
	})

	return &app{
		cfg:     cfg,
		backend: backend,
		store:   store,
		auth:    auth,
		client:  client,
	}, nil
}

// Close releases the backend
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// userError turns a client error into the message shown to the user
func userError(err error) error {
	internal.LogDebug("Request failed: %v", err)
	return fmt.Errorf("%s", api.UserMessage(err))
}

// decodeList decodes a response that is either a bare array or an object
// holding the array under key
func decodeList(resp *api.Response, key string, v interface{}) error {
	if resp.IsNull() {
		return nil
	}
	trimmed := bytes.TrimSpace(resp.Data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, v)
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return fmt.Errorf("unexpected response: %w", err)
	}
	raw, ok := wrapped[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
