// Package txnstate mediates all status changes on transactions: a
// transition only happens from a valid source state, exactly one caller
// wins under concurrency, and every change leaves an audit line in the
// transaction's notes.
package txnstate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"fintrack/internal/domain"
)

const defaultListLimit = 100

// Manager enforces the guarded transition discipline. It holds no state of
// its own; all state lives in the store, so concurrent managers in
// separate processes are safe against each other.
type Manager struct {
	store   Store
	log     zerolog.Logger
	timeout time.Duration

	now func() time.Time
}

// New creates a Manager. timeout bounds each storage operation; zero
// disables the per-operation deadline.
func New(store Store, log zerolog.Logger, timeout time.Duration) *Manager {
	return &Manager{
		store:   store,
		log:     log,
		timeout: timeout,
		now:     time.Now,
	}
}

// Cancel moves a pending transaction to declined and records
// "CANCELLED: <reason>" in its notes. Returns ErrNotFound or
// ErrInvalidState (wrapped) when the guard does not match.
func (m *Manager) Cancel(ctx context.Context, id int64, reason string) (*domain.Confirmation, error) {
	return m.transition(ctx, id, domain.StatusDeclined, domain.AuditActionCancelled, reason)
}

// Approve moves a pending transaction to approved and records
// "APPROVED: <reason>" in its notes.
func (m *Manager) Approve(ctx context.Context, id int64, reason string) (*domain.Confirmation, error) {
	return m.transition(ctx, id, domain.StatusApproved, domain.AuditActionApproved, reason)
}

func (m *Manager) transition(ctx context.Context, id int64, next domain.Status, action, reason string) (*domain.Confirmation, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	line := domain.AuditNote(action, reason, m.now())

	conf, applied, err := m.store.ApplyIfPending(ctx, id, next, line)
	if err != nil {
		m.log.Error().Err(err).Int64("transaction_id", id).Str("target_status", string(next)).
			Msg("Guarded status update failed")
		return nil, &domain.StorageError{Op: "apply status transition", Err: err}
	}

	if !applied {
		// Zero rows affected: the row is missing or another writer already
		// moved it out of pending. One follow-up read picks the right error
		// kind; it plays no part in deciding whether the transition won.
		status, found, err := m.store.GetStatus(ctx, id)
		if err != nil {
			return nil, &domain.StorageError{Op: "classify failed transition", Err: err}
		}
		if !found {
			return nil, fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("transaction %d is already %s: %w", id, status, domain.ErrInvalidState)
	}

	m.log.Info().
		Int64("transaction_id", id).
		Str("status", string(next)).
		Str("merchant", conf.Merchant).
		Str("amount", conf.Amount.String()).
		Msg("Transaction status updated")

	return conf, nil
}

// ListPending returns pending transactions, most recent date first. A
// non-positive limit falls back to the default.
func (m *Manager) ListPending(ctx context.Context, limit int) ([]domain.Transaction, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = defaultListLimit
	}

	txns, err := m.store.ListByStatus(ctx, domain.StatusPending, limit)
	if err != nil {
		return nil, &domain.StorageError{Op: "list pending transactions", Err: err}
	}
	return txns, nil
}

// StatsByStatus returns count/total/average amount per status.
func (m *Manager) StatsByStatus(ctx context.Context) (map[domain.Status]domain.StatusStats, error) {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	stats, err := m.store.StatsByStatus(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "aggregate status stats", Err: err}
	}
	return stats, nil
}

// ResetToPending force-sets a transaction back to pending and strips prior
// audit lines. This is an administrative escape hatch for demo data
// hygiene; it bypasses the guard and must never be reachable from normal
// user-facing transition calls.
func (m *Manager) ResetToPending(ctx context.Context, id int64) error {
	ctx, cancel := m.opContext(ctx)
	defer cancel()

	found, err := m.store.ForceReset(ctx, id)
	if err != nil {
		return &domain.StorageError{Op: "reset transaction", Err: err}
	}
	if !found {
		return fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
	}

	m.log.Warn().Int64("transaction_id", id).Msg("Transaction force-reset to pending")
	return nil
}

func (m *Manager) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}
