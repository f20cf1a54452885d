// Package store provides persistent storage for the inventory using SQLite.
//
// # Architecture
//
// The package owns the database file and its single table. Callers depend on
// the ItemStore interface; SQLiteStore is the production implementation and
// MockStore an in-memory stand-in for tests.
//
// # Data Model
//
//   - Item: one inventory record (id, name, description, quantity, price)
//   - Row: a result row keyed by column name, honoring projections
//   - Fields: a partial set of column values to write
//   - Filter: a conjunction of column conditions, independent of SQL syntax
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA user_version=1;
//
// Two drivers are supported. modernc.org/sqlite ("sqlite") is the default
// and needs no cgo. github.com/mattn/go-sqlite3 ("sqlite3") is selected with
// WithDriver(DriverMattn).
//
// Database file locations:
//
//   - Default: ~/.local/share/inventory/inventory.db
//   - Testing: a file under t.TempDir(), or MemoryPath
//
// # Filters
//
// Filters name columns from the contract package and compare them against
// bound values, so no caller-supplied text reaches the SQL statement:
//
//	rows, err := s.QueryItems(ctx, store.Query{
//	    Filter: store.Filter{store.Where(contract.ColumnQuantity, store.OpGt, 0)},
//	    Order:  []store.Order{{Column: contract.ColumnName}},
//	})
//
// Unknown columns or operators fail with ErrInvalidFilter.
//
// # Migrations
//
// The items table is created if absent and the schema version recorded in
// PRAGMA user_version. There is no other migration logic.
package store
