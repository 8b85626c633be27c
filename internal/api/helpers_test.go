package api

import (
	"testing"

	"github.com/iksnae/serenity-guest/internal"
	"github.com/iksnae/serenity-guest/testutil"
)

type testEnv struct {
	store  *internal.GuestStore
	fake   *testutil.FakeAPI
	client *Client
}

func newTestEnv(t *testing.T, demo bool) *testEnv {
	t.Helper()
	backend, err := internal.OpenBackend(internal.BackendOptions{Kind: "memory"})
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	store := internal.NewGuestStore(backend)
	fake := testutil.NewFakeAPI(t)
	client := NewClient(Options{
		BaseURL: fake.URL(),
		Store:   store,
		Demo:    demo,
	})
	return &testEnv{store: store, fake: fake, client: client}
}
