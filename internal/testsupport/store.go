package testsupport

import (
	"context"
	"testing"

	"rafcdn/internal/config"
	"rafcdn/internal/journal"
	"rafcdn/internal/uploads"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SaveRecord writes a record to the journal or fails the test.
func SaveRecord(t testing.TB, store *journal.Store, rec uploads.Record) {
	t.Helper()

	if rec.Origin == "" {
		rec.Origin = uploads.OriginLocal
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
}
