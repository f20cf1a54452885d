// ABOUTME: Inventory store routing list/insert/update/delete to the item table
// ABOUTME: Validates values before writing and publishes change notifications on success

package inventory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/store"
)

// Row is one result row keyed by column name.
type Row = store.Row

// Filter restricts which rows an operation applies to.
type Filter = store.Filter

// Query selects columns, filter and order for List.
type Query = store.Query

// Store is the inventory data-access layer. Mutations are serialized;
// reads may run concurrently.
type Store struct {
	mu       sync.RWMutex
	items    store.ItemStore
	notifier *Notifier
	logger   *slog.Logger
}

// Option configures New.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier shares an existing notifier instead of creating one.
func WithNotifier(n *Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// New creates a Store over items. The caller keeps ownership of items and
// closes it.
func New(items store.ItemStore, opts ...Option) *Store {
	s := &Store{
		items:  items,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "inventory")
	if s.notifier == nil {
		s.notifier = NewNotifier(s.logger)
	}
	return s
}

// Notifier returns the notifier changes are published on.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// ContentType returns the list or item content type for r.
func (s *Store) ContentType(r contract.Resource) (string, error) {
	return contract.ContentType(r)
}

// scope resolves the filter an operation runs with. Item resources always
// select exactly their id, discarding any caller filter.
func scope(r contract.Resource, filter Filter) (Filter, error) {
	switch {
	case r.IsCollection():
		return filter, nil
	case r.IsItem():
		return store.ByID(r.ID()), nil
	default:
		return nil, invalidResource(r)
	}
}

// List returns the rows addressed by r. For an item resource the filter in
// q is replaced by the item's id.
func (s *Store) List(ctx context.Context, r contract.Resource, q Query) ([]Row, error) {
	filter, err := scope(r, q.Filter)
	if err != nil {
		return nil, err
	}
	q.Filter = filter

	s.mu.RLock()
	rows, err := s.items.QueryItems(ctx, q)
	s.mu.RUnlock()
	if err != nil {
		return nil, storageError("list", err)
	}

	return rows, nil
}

// Get returns one item by id.
func (s *Store) Get(ctx context.Context, id int64) (*store.Item, error) {
	rows, err := s.List(ctx, contract.Item(id), Query{})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].Item(), nil
}

// Count returns the number of rows addressed by r and filter.
func (s *Store) Count(ctx context.Context, r contract.Resource, filter Filter) (int64, error) {
	filter, err := scope(r, filter)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	n, err := s.items.CountItems(ctx, filter)
	s.mu.RUnlock()
	if err != nil {
		return 0, storageError("count", err)
	}
	return n, nil
}

// Insert adds a new item to the collection and returns its id. Absent
// quantity and price are stored as 0.
func (s *Store) Insert(ctx context.Context, r contract.Resource, v Values) (int64, error) {
	if r.IsItem() {
		return 0, unsupported("insert", r)
	}
	if !r.IsCollection() {
		return 0, invalidResource(r)
	}
	if err := validate(v, true); err != nil {
		return 0, err
	}

	s.mu.Lock()
	id, err := s.items.InsertItem(ctx, v)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to insert item", "resource", r.String(), "error", err)
		return 0, &PersistenceError{Op: "insert", Err: err}
	}

	s.logger.Debug("item inserted", "id", id)
	s.notifier.Publish(Change{Resource: r, Kind: ChangeInsert, ID: id, Rows: 1})
	return id, nil
}

// Update writes the present fields to the rows addressed by r and returns
// the number of rows changed. An empty value set is a no-op.
func (s *Store) Update(ctx context.Context, r contract.Resource, v Values, filter Filter) (int64, error) {
	filter, err := scope(r, filter)
	if err != nil {
		return 0, err
	}
	if err := validate(v, false); err != nil {
		return 0, err
	}
	if v.Empty() {
		return 0, nil
	}

	s.mu.Lock()
	n, err := s.items.UpdateItems(ctx, v, filter)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to update items", "resource", r.String(), "error", err)
		return 0, storageError("update", err)
	}

	s.logger.Debug("items updated", "resource", r.String(), "rows", n)
	if n > 0 {
		s.notifier.Publish(Change{Resource: r, Kind: ChangeUpdate, Rows: n})
	}
	return n, nil
}

// Delete removes the rows addressed by r and returns the count. On the
// collection an empty filter removes every row.
func (s *Store) Delete(ctx context.Context, r contract.Resource, filter Filter) (int64, error) {
	filter, err := scope(r, filter)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	n, err := s.items.DeleteItems(ctx, filter)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to delete items", "resource", r.String(), "error", err)
		return 0, storageError("delete", err)
	}

	s.logger.Debug("items deleted", "resource", r.String(), "rows", n)
	if n > 0 {
		s.notifier.Publish(Change{Resource: r, Kind: ChangeDelete, Rows: n})
	}
	return n, nil
}

// Sell records the sale of one unit: quantity drops by one when positive.
// It returns ErrOutOfStock at zero quantity and ErrNotFound for unknown ids.
func (s *Store) Sell(ctx context.Context, id int64) (*store.Item, error) {
	r := contract.Item(id)

	s.mu.Lock()
	n, err := s.items.DecrementQuantity(ctx, id)
	if err == nil && n == 0 {
		var exists int64
		exists, err = s.items.CountItems(ctx, store.ByID(id))
		if err == nil {
			err = ErrOutOfStock
			if exists == 0 {
				err = ErrNotFound
			}
		}
	}
	s.mu.Unlock()

	switch {
	case err == ErrOutOfStock || err == ErrNotFound:
		return nil, err
	case err != nil:
		s.logger.Error("failed to record sale", "id", id, "error", err)
		return nil, &PersistenceError{Op: "sale", Err: err}
	}

	s.logger.Debug("sale recorded", "id", id)
	s.notifier.Publish(Change{Resource: r, Kind: ChangeUpdate, Rows: 1})
	return s.Get(ctx, id)
}

// Subscribe registers obs for changes under r. Subscribing to the
// collection also delivers item-level changes.
func (s *Store) Subscribe(ctx context.Context, r contract.Resource, obs Observer) (string, error) {
	return s.notifier.Subscribe(ctx, r, obs)
}

// Unsubscribe removes a subscription created by Subscribe.
func (s *Store) Unsubscribe(subID string) bool {
	return s.notifier.Unsubscribe(subID)
}
