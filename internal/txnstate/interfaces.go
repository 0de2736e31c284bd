package txnstate

import (
	"context"

	"fintrack/internal/domain"
)

// Store is the persistence contract the state manager runs on.
//
// ApplyIfPending is the load-bearing operation: the implementation must
// express the transition as a single conditional write whose predicate
// includes status = 'pending', and report through the applied flag whether
// that write touched a row. The storage engine, not application code,
// decides atomically whether the transition is legal.
type Store interface {
	// ApplyIfPending moves the transaction to next and appends auditLine to
	// its notes, but only if the row exists and is currently pending.
	// applied is false when the guard did not match (missing row or
	// non-pending status); the implementation must not distinguish the two.
	ApplyIfPending(ctx context.Context, id int64, next domain.Status, auditLine string) (conf *domain.Confirmation, applied bool, err error)

	// GetStatus reads the current status of a transaction. Used only to
	// build precise error messages after a guard miss.
	GetStatus(ctx context.Context, id int64) (status domain.Status, found bool, err error)

	// ListByStatus returns transactions in the given status ordered by
	// date descending, at most limit rows.
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Transaction, error)

	// StatsByStatus aggregates count, total and average amount per status.
	StatsByStatus(ctx context.Context) (map[domain.Status]domain.StatusStats, error)

	// ForceReset sets the transaction back to pending regardless of its
	// current status and strips prior audit lines from its notes. found is
	// false when no such row exists.
	ForceReset(ctx context.Context, id int64) (found bool, err error)
}
