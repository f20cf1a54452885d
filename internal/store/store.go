// ABOUTME: ItemStore interface and data types for inventory persistence
// ABOUTME: Defines Item, Row, Fields and Query used by SQLite and mock implementations

package store

import (
	"context"
	"errors"

	"github.com/2389/store-inventory/internal/contract"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Item is one persisted inventory record.
type Item struct {
	ID          int64
	Name        string
	Description string
	Quantity    int64
	Price       int64
}

// DisplayDescription returns the description, or the placeholder label when
// it is empty.
func (i *Item) DisplayDescription() string {
	if i.Description == "" {
		return contract.DescriptionPlaceholder
	}
	return i.Description
}

// Row maps column names to values for one result row. Integer columns hold
// int64 and text columns hold string.
type Row map[string]any

// Item converts a row into an Item. Columns missing from a projected row are
// left at their zero value.
func (r Row) Item() *Item {
	item := &Item{}
	if v, ok := r[contract.ColumnID].(int64); ok {
		item.ID = v
	}
	if v, ok := r[contract.ColumnName].(string); ok {
		item.Name = v
	}
	if v, ok := r[contract.ColumnDescription].(string); ok {
		item.Description = v
	}
	if v, ok := r[contract.ColumnQuantity].(int64); ok {
		item.Quantity = v
	}
	if v, ok := r[contract.ColumnPrice].(int64); ok {
		item.Price = v
	}
	return item
}

// Fields is a set of column values to write. A nil field is absent from
// the set and is left untouched (update) or defaulted (insert).
type Fields struct {
	Name        *string
	Description *string
	Quantity    *int64
	Price       *int64
}

// Empty reports whether no field is present.
func (f Fields) Empty() bool {
	return f.Name == nil && f.Description == nil && f.Quantity == nil && f.Price == nil
}

// Len returns the number of present fields.
func (f Fields) Len() int {
	n := 0
	for _, present := range []bool{f.Name != nil, f.Description != nil, f.Quantity != nil, f.Price != nil} {
		if present {
			n++
		}
	}
	return n
}

// assignments returns the present fields as parallel column and value slices
// in declaration order.
func (f Fields) assignments() ([]string, []any) {
	cols := make([]string, 0, 4)
	vals := make([]any, 0, 4)
	if f.Name != nil {
		cols = append(cols, contract.ColumnName)
		vals = append(vals, *f.Name)
	}
	if f.Description != nil {
		cols = append(cols, contract.ColumnDescription)
		vals = append(vals, *f.Description)
	}
	if f.Quantity != nil {
		cols = append(cols, contract.ColumnQuantity)
		vals = append(vals, *f.Quantity)
	}
	if f.Price != nil {
		cols = append(cols, contract.ColumnPrice)
		vals = append(vals, *f.Price)
	}
	return cols, vals
}

// Query selects rows from the items table.
type Query struct {
	// Columns to return; empty means all columns.
	Columns []string
	Filter  Filter
	// Order defaults to ascending id.
	Order []Order
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

// ItemStore is the persistence surface the inventory core is built on.
type ItemStore interface {
	QueryItems(ctx context.Context, q Query) ([]Row, error)
	InsertItem(ctx context.Context, fields Fields) (int64, error)
	UpdateItems(ctx context.Context, fields Fields, filter Filter) (int64, error)
	DeleteItems(ctx context.Context, filter Filter) (int64, error)
	// DecrementQuantity lowers quantity by one for the given id when it is
	// positive, returning the number of rows changed.
	DecrementQuantity(ctx context.Context, id int64) (int64, error)
	CountItems(ctx context.Context, filter Filter) (int64, error)

	// Close releases any resources held by the store
	Close() error
}

// String returns a pointer to s, for building Fields.
func String(s string) *string { return &s }

// Int returns a pointer to n, for building Fields.
func Int(n int64) *int64 { return &n }
