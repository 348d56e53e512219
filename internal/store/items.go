package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

// Errors returned by the repository. Driver errors are wrapped so callers can
// log the cause while matching on the category.
var (
	ErrUnavailable = errors.New("item store unavailable")
	ErrTimeout     = errors.New("item store timed out")
)

// DefaultTimeout bounds a single store operation when none is configured.
const DefaultTimeout = 5 * time.Second

// Querier is the part of *sql.DB the repository uses. Each call acquires a
// pooled connection and releases it when the call (or its rows) completes.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

type queries struct {
	insert    string
	list      string
	returning bool
}

var dialectQueries = map[db.Dialect]queries{
	db.SQLite: {
		insert: `INSERT INTO items (name, description, image, contact, date, time, location, status)
		         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		list: `SELECT id, name, description, image, contact, date, time, location, status
		       FROM items ORDER BY id DESC`,
	},
	db.MySQL: {
		insert: `INSERT INTO items (name, description, image, contact, date, time, location, status)
		         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		list: `SELECT id, name, description, image, contact, date, time, location, status
		       FROM items ORDER BY id DESC`,
	},
	db.Postgres: {
		insert: `INSERT INTO items (name, description, image, contact, "date", "time", location, status)
		         VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		list: `SELECT id, name, description, image, contact, "date"::text, "time"::text, location, status
		       FROM items ORDER BY id DESC`,
		returning: true,
	},
}

// Items is the item repository.
type Items struct {
	conn    Querier
	q       queries
	timeout time.Duration
}

// NewItems returns a repository over conn using the SQL dialect of the store.
func NewItems(conn Querier, dialect db.Dialect, timeout time.Duration) (*Items, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Items{conn: conn, q: q, timeout: timeout}, nil
}

// Create validates in and inserts a new row, returning the assigned id.
// Invalid input fails with *model.ValidationError and writes nothing.
func (s *Items) Create(ctx context.Context, in model.NewItem) (int64, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []any{
		in.Name,
		nullString(in.Description),
		nullString(in.Image),
		in.Contact,
		in.Date,
		nullString(in.Time),
		in.Location,
		string(in.Status),
	}

	if s.q.returning {
		var id int64
		if err := s.conn.QueryRowContext(ctx, s.q.insert, args...).Scan(&id); err != nil {
			return 0, classify("creating item", err)
		}
		return id, nil
	}

	result, err := s.conn.ExecContext(ctx, s.q.insert, args...)
	if err != nil {
		return 0, classify("creating item", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, classify("getting item id", err)
	}
	return id, nil
}

// List returns every item, newest (highest id) first. The result is never nil.
func (s *Items) List(ctx context.Context) ([]model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, s.q.list)
	if err != nil {
		return nil, classify("listing items", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		var description, image, timeOfDay sql.NullString
		var status string
		if err := rows.Scan(&item.ID, &item.Name, &description, &image, &item.Contact,
			&item.Date, &timeOfDay, &item.Location, &status); err != nil {
			return nil, classify("scanning item", err)
		}
		item.Description = stringPtr(description)
		item.Image = stringPtr(image)
		item.Time = stringPtr(timeOfDay)
		item.Status = model.Status(status)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("listing items", err)
	}
	return items, nil
}

// Ping checks that the store is reachable.
func (s *Items) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.conn.PingContext(ctx); err != nil {
		return classify("pinging store", err)
	}
	return nil
}

// classify wraps err with ErrTimeout when the deadline passed and with
// ErrUnavailable otherwise.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
