package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMigrateCreatesSchema(t *testing.T) {
	cfg := Config{Driver: SQLite, Path: filepath.Join(t.TempDir(), "schema.sqlite3")}

	version, err := Migrate(cfg)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("expected version %d, got %d", SchemaVersion, version)
	}

	// Running again is a no-op.
	version, err = Migrate(cfg)
	if err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("expected version %d after rerun, got %d", SchemaVersion, version)
	}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO items (name, contact, date, time, location, status) VALUES (?, ?, ?, ?, ?, ?)`,
		"Keys", "a@b.com", "2024-05-01", "10:00:00", "Gym", "found",
	)
	if err != nil {
		t.Fatalf("insert with time column: %v", err)
	}
}

func TestSchemaRejectsUnknownStatus(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.Exec(
		`INSERT INTO items (name, contact, date, location, status) VALUES (?, ?, ?, ?, ?)`,
		"Keys", "a@b.com", "2024-05-01", "Gym", "stolen",
	)
	if err == nil {
		t.Fatal("expected CHECK constraint failure for unknown status")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestOpenUnreachableMySQL(t *testing.T) {
	cfg := Config{
		Driver:      MySQL,
		Host:        "127.0.0.1",
		Port:        1,
		User:        "app_user",
		Name:        "lostfound",
		ConnTimeout: 500 * time.Millisecond,
	}
	if _, err := Open(cfg); err == nil {
		t.Fatal("expected error for unreachable mysql")
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "sqlite",
			cfg:  Config{Driver: SQLite, Path: "lostfound.sqlite3"},
			want: []string{"file:lostfound.sqlite3?", "busy_timeout", "journal_mode"},
		},
		{
			name: "mysql default port",
			cfg:  Config{Driver: MySQL, Host: "localhost", User: "app_user", Password: "5657", Name: "lostfound"},
			want: []string{"app_user:5657@tcp(localhost:3306)/lostfound"},
		},
		{
			name: "postgres",
			cfg:  Config{Driver: Postgres, Host: "db", Port: 6543, User: "u", Password: "p", Name: "lostfound"},
			want: []string{"postgres://u:p@db:6543/lostfound", "sslmode=disable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.cfg.DSN()
			if err != nil {
				t.Fatalf("DSN: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(dsn, w) {
					t.Errorf("DSN %q does not contain %q", dsn, w)
				}
			}
		})
	}

	if _, err := (Config{Driver: SQLite}).DSN(); err == nil {
		t.Error("expected error for empty sqlite path")
	}
}
