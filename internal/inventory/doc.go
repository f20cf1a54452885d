// Package inventory is the data-access core for store items.
//
// A Store routes each call by resource identifier: contract.Collection()
// addresses every item and contract.Item(id) one item. The shape is decided
// once, when the identifier is parsed, and matched here with ordinary
// branching.
//
//	inv := inventory.New(sqlStore)
//	id, err := inv.Insert(ctx, contract.Collection(), inventory.Values{
//	    Name:     store.String("Widget"),
//	    Quantity: store.Int(5),
//	})
//	rows, err := inv.List(ctx, contract.Item(id), inventory.Query{})
//
// # Errors
//
// Failures are reported with errors.Is against ErrInvalidResource,
// ErrUnsupportedOperation, ErrValidation, ErrPersistence and ErrNotFound.
// Validation runs before any write, so a ValidationError never leaves a
// partial change behind. Insert and update share one validation policy.
//
// # Change Notifications
//
// Successful inserts, and updates or deletes that touch at least one row,
// publish a Change on the Store's Notifier after the write lock is
// released. Observers run synchronously on the caller's goroutine.
package inventory
