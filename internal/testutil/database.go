// Package testutil provides shared test fixtures for the expense tracker.
package testutil

import (
	"context"
	"testing"

	"github.com/johnchik/llm-expense-tracker/internal/service"
	"github.com/johnchik/llm-expense-tracker/internal/storage"
)

// SetupStore creates a migrated in-memory store and registers cleanup.
func SetupStore(t *testing.T) service.TableStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
