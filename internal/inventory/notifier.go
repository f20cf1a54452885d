// ABOUTME: Synchronous change-notification registry keyed by resource
// ABOUTME: Collection observers see item changes and item observers see collection changes

package inventory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/store-inventory/internal/contract"
)

// ChangeKind names the mutation behind a change notification.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change signals that data under Resource was mutated.
type Change struct {
	Resource contract.Resource
	Kind     ChangeKind
	// ID is the new id for inserts and zero otherwise.
	ID int64
	// Rows is the number of rows affected.
	Rows int64
}

// Observer receives change notifications.
type Observer interface {
	OnChange(Change)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Change)

// OnChange calls f(c).
func (f ObserverFunc) OnChange(c Change) { f(c) }

type subscription struct {
	id       string
	resource contract.Resource
	observer Observer
}

// Notifier fans change notifications out to observers. Delivery is a
// synchronous call on the publishing goroutine, in subscription order.
// Observers must not call mutating Store operations.
type Notifier struct {
	mu     sync.RWMutex
	subs   []*subscription
	logger *slog.Logger
}

// NewNotifier creates a notifier. Pass nil logger for default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger: logger.With("component", "notifier"),
	}
}

// Subscribe registers obs for changes overlapping r and returns a
// subscription ID for Unsubscribe. The subscription is removed when ctx is
// cancelled.
func (n *Notifier) Subscribe(ctx context.Context, r contract.Resource, obs Observer) (string, error) {
	if !r.Valid() {
		return "", invalidResource(r)
	}

	sub := &subscription{
		id:       uuid.New().String(),
		resource: r,
		observer: obs,
	}

	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	n.logger.Debug("observer added", "resource", r.String(), "sub_id", sub.id)

	// Auto-cleanup on context cancellation
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			n.Unsubscribe(sub.id)
		}()
	}

	return sub.id, nil
}

// Unsubscribe removes a subscription. It reports whether it was present.
func (n *Notifier) Unsubscribe(subID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.subs {
		if sub.id == subID {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			n.logger.Debug("observer removed", "resource", sub.resource.String(), "sub_id", subID)
			return true
		}
	}
	return false
}

// Publish delivers c to every observer whose resource overlaps c.Resource.
// The registry lock is not held while observers run.
func (n *Notifier) Publish(c Change) {
	n.mu.RLock()
	targets := make([]Observer, 0, len(n.subs))
	for _, sub := range n.subs {
		if sub.resource.Overlaps(c.Resource) {
			targets = append(targets, sub.observer)
		}
	}
	n.mu.RUnlock()

	for _, obs := range targets {
		obs.OnChange(c)
	}

	n.logger.Debug("change published",
		"resource", c.Resource.String(),
		"kind", string(c.Kind),
		"observers", len(targets))
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close removes every subscription.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = nil
	n.logger.Debug("notifier closed")
}
