// ABOUTME: Error taxonomy for inventory operations
// ABOUTME: Sentinels for routing failures plus ValidationError and PersistenceError types

package inventory

import (
	"errors"
	"fmt"

	"github.com/2389/store-inventory/internal/contract"
	"github.com/2389/store-inventory/internal/store"
)

// Operation errors
var (
	// ErrInvalidResource means the identifier could not be routed.
	ErrInvalidResource = contract.ErrInvalidResource
	// ErrUnsupportedOperation means the operation is not defined for the
	// identifier shape, such as an insert into an item.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound means the addressed item does not exist.
	ErrNotFound = store.ErrNotFound
)

// ErrOutOfStock is returned by Sell when the quantity is already zero.
var ErrOutOfStock = &ValidationError{Field: contract.ColumnQuantity, Message: "not sufficient quantity"}

// ValidationError reports a caller-supplied value that violates a field
// constraint. Nothing is written when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError reports a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func invalidResource(r contract.Resource) error {
	return fmt.Errorf("%w: %s", ErrInvalidResource, r)
}

func unsupported(op string, r contract.Resource) error {
	return fmt.Errorf("%w: %s on %s", ErrUnsupportedOperation, op, r)
}

// storageError classifies an error from the item store. Filter errors are
// the caller's fault; everything else is a persistence failure.
func storageError(op string, err error) error {
	if errors.Is(err, store.ErrInvalidFilter) {
		return &ValidationError{Field: "filter", Message: err.Error()}
	}
	return &PersistenceError{Op: op, Err: err}
}
