// Package testdb provides an in-memory SQLite database with every entity
// table migrated, for fast and realistic tests.
package testdb

import (
	"context"
	"testing"

	"github.com/momah-portal/embedgen/infrastructure/persistence"
	"github.com/momah-portal/embedgen/internal/database"
)

// New creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test finishes.
func New(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	if err != nil {
		t.Fatalf("testdb.New: open database: %v", err)
	}
	if err := persistence.AutoMigrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("testdb.New: auto migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
