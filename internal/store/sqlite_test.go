// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers database creation, schema version, and item SQL round trips

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2389/store-inventory/internal/contract"
)

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	// Verify the database file was created in the nested directory
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestNewSQLiteStore_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), WithDriver("postgres"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestNewSQLiteStore_MattnDriver(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cgo.db")

	store, err := NewSQLiteStore(dbPath, WithDriver(DriverMattn))
	if err != nil {
		if strings.Contains(err.Error(), "CGO_ENABLED=0") {
			t.Skip("go-sqlite3 needs cgo")
		}
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	id, err := store.InsertItem(ctx, Fields{Name: String("Widget"), Quantity: Int(3)})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}

	rows, err := store.QueryItems(ctx, Query{Filter: ByID(id)})
	if err != nil {
		t.Fatalf("QueryItems failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Item().Quantity != 3 {
		t.Errorf("rows = %v, want one Widget with quantity 3", rows)
	}
}

func TestNewSQLiteStore_Memory(t *testing.T) {
	store, err := NewSQLiteStore(MemoryPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.InsertItem(ctx, Fields{Name: String("Widget")}); err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}

	// The single pooled connection sees its own writes
	n, err := store.CountItems(ctx, nil)
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSchemaVersion(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	version, err := store.UserVersion(context.Background())
	if err != nil {
		t.Fatalf("UserVersion failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("user_version = %d, want %d", version, SchemaVersion)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	id, err := store.InsertItem(ctx, Fields{Name: String("Bolt"), Quantity: Int(3)})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}
	store.Close()

	// Schema creation is idempotent on an existing file
	store, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("reopening failed: %v", err)
	}
	defer store.Close()

	rows, err := store.QueryItems(ctx, Query{Filter: ByID(id)})
	if err != nil {
		t.Fatalf("QueryItems failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Item().Name != "Bolt" {
		t.Errorf("Name = %q, want %q", rows[0].Item().Name, "Bolt")
	}
}

func TestInsertItem_Defaults(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	id, err := store.InsertItem(ctx, Fields{Name: String("Widget")})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}

	rows, err := store.QueryItems(ctx, Query{Filter: ByID(id)})
	if err != nil {
		t.Fatalf("QueryItems failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	want := Row{
		contract.ColumnID:          id,
		contract.ColumnName:        "Widget",
		contract.ColumnDescription: "",
		contract.ColumnQuantity:    int64(0),
		contract.ColumnPrice:       int64(0),
	}
	for k, v := range want {
		if rows[0][k] != v {
			t.Errorf("%s = %#v, want %#v", k, rows[0][k], v)
		}
	}
}

func TestInsertItem_MissingNameFails(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.InsertItem(context.Background(), Fields{Quantity: Int(1)})
	if err == nil {
		t.Fatal("expected NOT NULL constraint failure")
	}
}

func TestInsertItem_IDsIncrease(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	ctx := context.Background()
	var last int64
	for i := 0; i < 5; i++ {
		id, err := store.InsertItem(ctx, Fields{Name: String("item")})
		if err != nil {
			t.Fatalf("InsertItem failed: %v", err)
		}
		if id <= last {
			t.Errorf("id %d not greater than previous %d", id, last)
		}
		last = id
	}

	// AUTOINCREMENT never reuses ids of deleted rows
	if _, err := store.DeleteItems(ctx, ByID(last)); err != nil {
		t.Fatalf("DeleteItems failed: %v", err)
	}
	id, err := store.InsertItem(ctx, Fields{Name: String("after delete")})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}
	if id <= last {
		t.Errorf("id %d reused after delete of %d", id, last)
	}
}
