package domain

import (
	"errors"
	"fmt"
)

// Callers are expected to treat ErrNotFound and ErrInvalidState as
// non-retryable ("nothing to do") and StorageError as retryable.
var (
	// ErrNotFound means no transaction exists with the requested id.
	ErrNotFound = errors.New("transaction not found")

	// ErrInvalidState means the transaction exists but is not in the
	// source state the requested transition needs.
	ErrInvalidState = errors.New("transaction is not in the required state")
)

// StorageError wraps a failure of the underlying store. By the time one is
// returned any partial write has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
