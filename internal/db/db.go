package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL engine behind a connection pool.
type Dialect string

// Supported dialects.
const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// Config describes how to reach the item store.
type Config struct {
	Driver   Dialect `yaml:"driver"`
	Path     string  `yaml:"path"`
	Host     string  `yaml:"host"`
	Port     int     `yaml:"port"`
	User     string  `yaml:"user"`
	Password string  `yaml:"password"`
	Name     string  `yaml:"name"`

	MaxOpenConns int           `yaml:"max_open_conns"`
	ConnTimeout  time.Duration `yaml:"conn_timeout"`
}

// DefaultPort returns the conventional port for the configured driver.
func (c Config) DefaultPort() int {
	switch c.Driver {
	case MySQL:
		return 3306
	case Postgres:
		return 5432
	default:
		return 0
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (c Config) DriverName() (string, error) {
	switch c.Driver {
	case SQLite, "":
		return "sqlite", nil
	case MySQL:
		return "mysql", nil
	case Postgres:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// DSN builds the data source name for the configured driver.
func (c Config) DSN() (string, error) {
	port := c.Port
	if port == 0 {
		port = c.DefaultPort()
	}

	switch c.Driver {
	case SQLite, "":
		if c.Path == "" {
			return "", fmt.Errorf("sqlite path is empty")
		}
		// Pragmas go in the DSN so they apply to every pooled connection.
		q := url.Values{}
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "busy_timeout(5000)")
		q.Add("_pragma", "synchronous(NORMAL)")
		return "file:" + c.Path + "?" + q.Encode(), nil

	case MySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
		mc.DBName = c.Name
		mc.Timeout = c.ConnTimeout
		return mc.FormatDSN(), nil

	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
			Path:     "/" + c.Name,
			RawQuery: "sslmode=disable",
		}
		if c.ConnTimeout > 0 {
			u.RawQuery += "&connect_timeout=" + strconv.Itoa(int(c.ConnTimeout.Seconds()))
		}
		return u.String(), nil

	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Dialect returns the configured dialect, defaulting to SQLite.
func (c Config) Dialect() Dialect {
	if c.Driver == "" {
		return SQLite
	}
	return c.Driver
}

// Open opens a connection pool for the configured driver and verifies that the
// store is reachable.
func Open(cfg Config) (*sql.DB, error) {
	driver, err := cfg.DriverName()
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.ConnTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", cfg.Dialect(), err)
	}

	return db, nil
}
