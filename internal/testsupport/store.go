package testsupport

import (
	"path/filepath"
	"testing"

	"docfactory/internal/config"
	"docfactory/internal/dupindex"
	"docfactory/internal/records"
)

// MustOpenIndex opens the duplicate index for tests and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *dupindex.Store {
	t.Helper()

	store, err := dupindex.Open(cfg)
	if err != nil {
		t.Fatalf("dupindex.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenRecords opens the document record store for tests.
func MustOpenRecords(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(filepath.Join(cfg.Paths.IndexDir, "records.json"), nil)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	return store
}
