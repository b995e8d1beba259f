package testsupport

import (
	"context"
	"testing"

	"clive/internal/config"
	"clive/internal/runlog"
)

// MustOpenStore opens a runlog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runlog.Store {
	t.Helper()

	store, err := runlog.Open(cfg)
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRun creates a new run record for tests using the provided store.
func NewRun(t testing.TB, store *runlog.Store, source, model string) *runlog.Run {
	t.Helper()

	run, err := store.NewRun(context.Background(), source, model)
	if err != nil {
		t.Fatalf("store.NewRun: %v", err)
	}
	return run
}
