package testutil

import (
	"context"
	"testing"

	"shiplog/internal/database"
	"shiplog/internal/database/migrations"
	"shiplog/internal/logbook"
)

// NewTestStore creates an in-memory SQLite store migrated to the latest
// schema version. The store is automatically closed when the test completes.
func NewTestStore(t *testing.T, clock logbook.Clock) logbook.Store {
	t.Helper()

	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := migrations.Run(context.Background(), db, migrations.Steps); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	store := database.NewSQLiteStore(db, clock)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}
