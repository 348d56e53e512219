package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Each dialect has its own directory of numbered up/down migrations.
// Version 1 creates the items table, version 2 adds the optional time of day.
//
//go:embed migrations
var migrationsFS embed.FS

// SchemaVersion is the latest migration version shipped with the binary.
const SchemaVersion = 2

// Migrate brings the schema up to SchemaVersion. It opens its own connection
// because closing a migrate instance closes the underlying pool.
func Migrate(cfg Config) (uint, error) {
	conn, err := Open(cfg)
	if err != nil {
		return 0, err
	}

	m, err := newMigrate(conn, cfg.Dialect())
	if err != nil {
		conn.Close()
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func newMigrate(conn *sql.DB, dialect Dialect) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return nil, fmt.Errorf("loading %s migrations: %w", dialect, err)
	}

	var drv database.Driver
	switch dialect {
	case SQLite:
		drv, err = sqlite.WithInstance(conn, &sqlite.Config{})
	case MySQL:
		drv, err = mysql.WithInstance(conn, &mysql.Config{})
	case Postgres:
		drv, err = pgxmigrate.WithInstance(conn, &pgxmigrate.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), drv)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
