// ABOUTME: SQLite implementation of the ItemStore interface
// ABOUTME: Opens the database file, creates the items table on first use and runs item SQL

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/2389/store-inventory/internal/contract"
)

// Driver names registered with database/sql
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3, requires cgo
)

// SchemaVersion is written to PRAGMA user_version after the schema is created.
const SchemaVersion = 1

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements the ItemStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	driver string
}

type options struct {
	driver string
	logger *slog.Logger
}

// Option configures NewSQLiteStore.
type Option func(*options)

// WithDriver selects the database/sql driver (DriverModernc or DriverMattn).
func WithDriver(name string) Option {
	return func(o *options) {
		if name != "" {
			o.driver = name
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	o := options{driver: DriverModernc, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver != DriverModernc && o.driver != DriverMattn {
		return nil, fmt.Errorf("unsupported sqlite driver %q", o.driver)
	}
	logger := o.logger.With("component", "store")

	if path != MemoryPath {
		// Ensure parent directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open(o.driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == MemoryPath {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		// Enable WAL mode for better concurrent performance
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		driver: o.driver,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path, "driver", o.driver)
	return s, nil
}

// createSchema creates the items table if it doesn't exist and records the
// schema version. There are no migrations beyond the version bump.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			"_id"      INTEGER PRIMARY KEY AUTOINCREMENT,
			"name"     TEXT NOT NULL,
			"desc"     TEXT NOT NULL DEFAULT '',
			"quantity" INTEGER NOT NULL DEFAULT 0,
			"price"    INTEGER NOT NULL DEFAULT 0
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version < SchemaVersion {
		// PRAGMA does not accept bound parameters
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
		s.logger.Debug("schema version bumped", "from", version, "to", SchemaVersion)
	}
	return nil
}

// UserVersion returns the PRAGMA user_version of the open database.
func (s *SQLiteStore) UserVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// Reader returns a read-capable handle.
func (s *SQLiteStore) Reader() *sql.DB {
	return s.db
}

// Writer returns a write-capable handle. It is the same handle as Reader;
// callers serialize writes.
func (s *SQLiteStore) Writer() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name in use.
func (s *SQLiteStore) Driver() string {
	return s.driver
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// QueryItems returns the rows matching q, projected to q.Columns.
func (s *SQLiteStore) QueryItems(ctx context.Context, q Query) ([]Row, error) {
	columns := q.Columns
	if len(columns) == 0 {
		columns = contract.AllColumns
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if !contract.IsColumn(c) {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidFilter, c)
		}
		quoted[i] = quoteIdent(c)
	}

	where, args, err := q.Filter.whereClause()
	if err != nil {
		return nil, err
	}
	order, err := orderClause(q.Order)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + strings.Join(quoted, ", ") + " FROM " + contract.TableItems + where + order
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	return result, nil
}

// scanRow scans one result row into a Row keyed by column name.
func scanRow(rows *sql.Rows, columns []string) (Row, error) {
	dest := make([]any, len(columns))
	for i, c := range columns {
		switch c {
		case contract.ColumnName, contract.ColumnDescription:
			dest[i] = new(sql.NullString)
		default:
			dest[i] = new(sql.NullInt64)
		}
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning item: %w", err)
	}

	row := make(Row, len(columns))
	for i, c := range columns {
		switch v := dest[i].(type) {
		case *sql.NullString:
			row[c] = v.String
		case *sql.NullInt64:
			row[c] = v.Int64
		}
	}
	return row, nil
}

// InsertItem inserts one row and returns its assigned id.
func (s *SQLiteStore) InsertItem(ctx context.Context, fields Fields) (int64, error) {
	cols, vals := fields.assignments()

	var query string
	if len(cols) == 0 {
		query = "INSERT INTO " + contract.TableItems + " DEFAULT VALUES"
	} else {
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = quoteIdent(c)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		query = "INSERT INTO " + contract.TableItems +
			" (" + strings.Join(quoted, ", ") + ") VALUES (" + placeholders + ")"
	}

	result, err := s.Writer().ExecContext(ctx, query, vals...)
	if err != nil {
		return 0, fmt.Errorf("inserting item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}

	s.logger.Debug("inserted item", "id", id)
	return id, nil
}

// UpdateItems sets the present fields on every row matching filter and
// returns the number of rows changed. An empty field set touches nothing.
func (s *SQLiteStore) UpdateItems(ctx context.Context, fields Fields, filter Filter) (int64, error) {
	cols, vals := fields.assignments()
	if len(cols) == 0 {
		return 0, nil
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quoteIdent(c) + " = ?"
	}

	where, whereArgs, err := filter.whereClause()
	if err != nil {
		return 0, err
	}

	query := "UPDATE " + contract.TableItems + " SET " + strings.Join(sets, ", ") + where
	result, err := s.Writer().ExecContext(ctx, query, append(vals, whereArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("updating items: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}

	s.logger.Debug("updated items", "rows", n)
	return n, nil
}

// DeleteItems removes every row matching filter and returns the count.
func (s *SQLiteStore) DeleteItems(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := filter.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.Writer().ExecContext(ctx, "DELETE FROM "+contract.TableItems+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting items: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}

	s.logger.Debug("deleted items", "rows", n)
	return n, nil
}

// DecrementQuantity lowers the quantity of one item by one if it is positive.
func (s *SQLiteStore) DecrementQuantity(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE items SET "quantity" = "quantity" - 1 WHERE "_id" = ? AND "quantity" > 0`

	result, err := s.Writer().ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("decrementing quantity: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return n, nil
}

// CountItems returns the number of rows matching filter.
func (s *SQLiteStore) CountItems(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := filter.whereClause()
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.Reader().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+contract.TableItems+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return count, nil
}
