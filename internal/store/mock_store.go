// ABOUTME: Mock ItemStore implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage faults

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/2389/store-inventory/internal/contract"
)

// MockStore is an in-memory ItemStore implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	items  map[int64]*Item // keyed by item ID
	nextID int64
	failOn map[string]error // keyed by method name
	calls  map[string]int   // keyed by method name
	closed bool
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		items:  make(map[int64]*Item),
		nextID: 1,
		failOn: make(map[string]error),
		calls:  make(map[string]int),
	}
}

// FailOn makes every subsequent call to the named method return err.
// Pass a nil err to clear the failure.
func (m *MockStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		delete(m.failOn, method)
		return
	}
	m.failOn[method] = err
}

// Calls returns how many times the named method was invoked.
func (m *MockStore) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// enter records a call and returns the injected failure, if any.
// Must be called with mu held.
func (m *MockStore) enter(method string) error {
	m.calls[method]++
	if m.closed {
		return fmt.Errorf("%s: store closed", method)
	}
	return m.failOn[method]
}

func itemRow(item *Item) Row {
	return Row{
		contract.ColumnID:          item.ID,
		contract.ColumnName:        item.Name,
		contract.ColumnDescription: item.Description,
		contract.ColumnQuantity:    item.Quantity,
		contract.ColumnPrice:       item.Price,
	}
}

// matching returns the items matching filter in ascending id order.
// Must be called with mu held.
func (m *MockStore) matching(filter Filter) []*Item {
	ids := make([]int64, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []*Item
	for _, id := range ids {
		item := m.items[id]
		if filter.Match(itemRow(item)) {
			result = append(result, item)
		}
	}
	return result
}

// QueryItems returns the rows matching q.
func (m *MockStore) QueryItems(ctx context.Context, q Query) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("QueryItems"); err != nil {
		return nil, err
	}
	if err := q.Filter.Validate(); err != nil {
		return nil, err
	}
	if _, err := orderClause(q.Order); err != nil {
		return nil, err
	}

	columns := q.Columns
	if len(columns) == 0 {
		columns = contract.AllColumns
	}
	for _, c := range columns {
		if !contract.IsColumn(c) {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidFilter, c)
		}
	}

	full := make([]Row, 0)
	for _, item := range m.matching(q.Filter) {
		full = append(full, itemRow(item))
	}

	if len(q.Order) > 0 {
		sort.SliceStable(full, func(i, j int) bool {
			for _, o := range q.Order {
				cmp := Condition{Op: OpEq, Value: full[j][o.Column]}
				if cmp.match(full[i][o.Column]) {
					continue
				}
				less := Condition{Op: OpLt, Value: full[j][o.Column]}.match(full[i][o.Column])
				if o.Desc {
					return !less
				}
				return less
			}
			return false
		})
	}

	if q.Limit > 0 && len(full) > q.Limit {
		full = full[:q.Limit]
	}

	result := make([]Row, 0, len(full))
	for _, row := range full {
		projected := make(Row, len(columns))
		for _, c := range columns {
			projected[c] = row[c]
		}
		result = append(result, projected)
	}
	return result, nil
}

// InsertItem stores a new item and returns its id.
func (m *MockStore) InsertItem(ctx context.Context, fields Fields) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("InsertItem"); err != nil {
		return 0, err
	}
	if fields.Name == nil {
		return 0, fmt.Errorf("inserting item: NOT NULL constraint failed: items.name")
	}

	item := &Item{ID: m.nextID}
	m.nextID++
	apply(item, fields)
	m.items[item.ID] = item
	return item.ID, nil
}

// UpdateItems sets the present fields on matching items.
func (m *MockStore) UpdateItems(ctx context.Context, fields Fields, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("UpdateItems"); err != nil {
		return 0, err
	}
	if fields.Empty() {
		return 0, nil
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	var n int64
	for _, item := range m.matching(filter) {
		apply(item, fields)
		n++
	}
	return n, nil
}

// DeleteItems removes matching items.
func (m *MockStore) DeleteItems(ctx context.Context, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("DeleteItems"); err != nil {
		return 0, err
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}

	var n int64
	for _, item := range m.matching(filter) {
		delete(m.items, item.ID)
		n++
	}
	return n, nil
}

// DecrementQuantity lowers quantity by one when positive.
func (m *MockStore) DecrementQuantity(ctx context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("DecrementQuantity"); err != nil {
		return 0, err
	}

	item, ok := m.items[id]
	if !ok || item.Quantity <= 0 {
		return 0, nil
	}
	item.Quantity--
	return 1, nil
}

// CountItems counts matching items.
func (m *MockStore) CountItems(ctx context.Context, filter Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter("CountItems"); err != nil {
		return 0, err
	}
	if err := filter.Validate(); err != nil {
		return 0, err
	}
	return int64(len(m.matching(filter))), nil
}

// Close marks the store closed; later calls fail.
func (m *MockStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func apply(item *Item, fields Fields) {
	if fields.Name != nil {
		item.Name = *fields.Name
	}
	if fields.Description != nil {
		item.Description = *fields.Description
	}
	if fields.Quantity != nil {
		item.Quantity = *fields.Quantity
	}
	if fields.Price != nil {
		item.Price = *fields.Price
	}
}

// Ensure both implementations satisfy ItemStore.
var (
	_ ItemStore = (*SQLiteStore)(nil)
	_ ItemStore = (*MockStore)(nil)
)
