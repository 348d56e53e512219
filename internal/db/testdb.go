package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh SQLite database in a temporary directory with all
// migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := Config{Driver: SQLite, Path: filepath.Join(t.TempDir(), "test.sqlite3")}
	if _, err := Migrate(cfg); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
