package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func newTestItems(t *testing.T) (*Items, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	items, err := NewItems(database, db.SQLite, time.Second)
	if err != nil {
		t.Fatalf("NewItems: %v", err)
	}
	return items, database
}

func backpack() model.NewItem {
	return model.NewItem{
		Name:     "Blue Backpack",
		Contact:  "a@b.com",
		Date:     "2024-05-01",
		Location: "Library",
		Status:   model.StatusLost,
	}
}

func countRows(t *testing.T, database *sql.DB) int {
	t.Helper()
	var n int
	if err := database.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return n
}

func TestCreateAndList(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()

	id, err := items.Create(ctx, backpack())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 1 {
		t.Errorf("expected id 1, got %d", id)
	}

	list, err := items.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 item, got %d", len(list))
	}

	got := list[0]
	if got.Name != "Blue Backpack" || got.Status != model.StatusLost || got.Date != "2024-05-01" {
		t.Errorf("unexpected item %+v", got)
	}
	if got.Image != nil {
		t.Errorf("expected nil image, got %q", *got.Image)
	}
	if got.Description != nil {
		t.Errorf("expected nil description, got %q", *got.Description)
	}
	if got.Time != nil {
		t.Errorf("expected nil time, got %q", *got.Time)
	}
}

func TestCreateStoresOptionalFields(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()

	in := backpack()
	in.Description = "Has a keychain"
	in.Time = "14:30"
	in.Image = "/uploads/abc.png"
	if _, err := items.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, _ := items.List(ctx)
	got := list[0]
	if got.Description == nil || *got.Description != "Has a keychain" {
		t.Errorf("unexpected description %v", got.Description)
	}
	if got.Time == nil || *got.Time != "14:30:00" {
		t.Errorf("unexpected time %v", got.Time)
	}
	if got.Image == nil || *got.Image != "/uploads/abc.png" {
		t.Errorf("unexpected image %v", got.Image)
	}
}

func TestListNewestFirst(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()

	const n = 5
	var prev int64
	for i := range n {
		in := backpack()
		in.Name = fmt.Sprintf("Item %d", i)
		id, err := items.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		if id <= prev {
			t.Fatalf("expected increasing ids, got %d after %d", id, prev)
		}
		prev = id
	}

	list, err := items.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != n {
		t.Fatalf("expected %d items, got %d", n, len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID <= list[i].ID {
			t.Errorf("items not in descending id order: %d before %d", list[i-1].ID, list[i].ID)
		}
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	items, _ := newTestItems(t)

	list, err := items.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	items, database := newTestItems(t)
	ctx := context.Background()

	cases := map[string]func(*model.NewItem){
		"no name":     func(n *model.NewItem) { n.Name = "" },
		"no contact":  func(n *model.NewItem) { n.Contact = "" },
		"no date":     func(n *model.NewItem) { n.Date = "" },
		"no location": func(n *model.NewItem) { n.Location = "" },
		"bad status":  func(n *model.NewItem) { n.Status = "stolen" },
	}

	for name, mutate := range cases {
		in := backpack()
		mutate(&in)
		_, err := items.Create(ctx, in)
		if !model.IsValidationError(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}

	if n := countRows(t, database); n != 0 {
		t.Errorf("expected no rows after rejected creates, got %d", n)
	}
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	items, database := newTestItems(t)
	ctx := context.Background()

	id1, _ := items.Create(ctx, backpack())
	if _, err := database.Exec(`DELETE FROM items WHERE id = ?`, id1); err != nil {
		t.Fatalf("deleting row: %v", err)
	}

	id2, err := items.Create(ctx, backpack())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("expected id greater than %d, got %d", id1, id2)
	}
}

func TestClosedStoreUnavailable(t *testing.T) {
	items, database := newTestItems(t)
	database.Close()

	_, err := items.List(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from List, got %v", err)
	}

	_, err = items.Create(context.Background(), backpack())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Create, got %v", err)
	}

	if err := items.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Ping, got %v", err)
	}
}

// blockingQuerier never answers before the context expires.
type blockingQuerier struct{}

func (blockingQuerier) ExecContext(ctx context.Context, _ string, _ ...any) (sql.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingQuerier) QueryContext(ctx context.Context, _ string, _ ...any) (*sql.Rows, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("not used")
}

func (blockingQuerier) PingContext(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestOperationsTimeOut(t *testing.T) {
	items, err := NewItems(blockingQuerier{}, db.MySQL, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewItems: %v", err)
	}

	start := time.Now()
	_, err = items.List(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("List took %s, expected it to be bounded", elapsed)
	}

	_, err = items.Create(context.Background(), backpack())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout from Create, got %v", err)
	}
}

func TestNewItemsUnknownDialect(t *testing.T) {
	if _, err := NewItems(blockingQuerier{}, "oracle", 0); err == nil {
		t.Fatal("expected error for unknown dialect")
	}
}
