package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
)

// TransactionStore reads and writes the transactions table.
type TransactionStore struct {
	db *sql.DB
}

// NewTransactionStore creates a transaction store on db.
func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `transaction_id, date, amount,
	COALESCE(merchant, ''), COALESCE(category, ''), COALESCE(notes, ''),
	status, account_id`

func scanTransaction(row interface{ Scan(...any) error }) (domain.Transaction, error) {
	var tx domain.Transaction
	var status string
	err := row.Scan(&tx.TransactionID, &tx.Date, &tx.Amount,
		&tx.Merchant, &tx.Category, &tx.Notes, &status, &tx.AccountID)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Status = domain.Status(status)
	return tx, nil
}

// ApplyIfPending performs the guarded transition as one conditional
// UPDATE. The status check lives in the WHERE clause, so the database
// decides atomically whether the transition applies; concurrent callers
// cannot both match the same pending row. The audit line is appended to
// notes in the same statement.
func (s *TransactionStore) ApplyIfPending(ctx context.Context, id int64, next domain.Status, auditLine string) (*domain.Confirmation, bool, error) {
	const q = `
		UPDATE transactions
		SET status = $2,
		    notes = CASE
		        WHEN COALESCE(notes, '') = '' THEN $3
		        ELSE notes || E'\n' || $3
		    END
		WHERE transaction_id = $1 AND status = 'pending'
		RETURNING COALESCE(merchant, ''), amount`

	var merchant string
	var amount decimal.Decimal
	err := s.db.QueryRowContext(ctx, q, id, string(next), auditLine).Scan(&merchant, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ApplyIfPending: %w", err)
	}

	return &domain.Confirmation{
		TransactionID: id,
		Status:        next,
		Merchant:      merchant,
		Amount:        amount,
	}, true, nil
}

// GetStatus reads the current status of one transaction.
func (s *TransactionStore) GetStatus(ctx context.Context, id int64) (domain.Status, bool, error) {
	const q = `SELECT status FROM transactions WHERE transaction_id = $1`

	var status string
	err := s.db.QueryRowContext(ctx, q, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("GetStatus: %w", err)
	}
	return domain.Status(status), true, nil
}

// ListByStatus returns transactions in the given status, newest date
// first.
func (s *TransactionStore) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Transaction, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE status = $1
		ORDER BY date DESC, transaction_id DESC
		LIMIT $2`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, q, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByStatus: scan: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return out, nil
}

// StatsByStatus aggregates count, total and average amount per status.
func (s *TransactionStore) StatsByStatus(ctx context.Context) (map[domain.Status]domain.StatusStats, error) {
	const q = `
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0)
		FROM transactions
		GROUP BY status`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("StatsByStatus: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.Status]domain.StatusStats)
	for rows.Next() {
		var status string
		var st domain.StatusStats
		if err := rows.Scan(&status, &st.Count, &st.TotalAmount, &st.AvgAmount); err != nil {
			return nil, fmt.Errorf("StatsByStatus: scan: %w", err)
		}
		stats[domain.Status(status)] = st
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StatsByStatus: %w", err)
	}
	return stats, nil
}

// ForceReset moves a transaction back to pending and strips prior audit
// lines from its notes. The row is locked for the read-modify-write on
// notes; the status flip itself is unconditional.
func (s *TransactionStore) ForceReset(ctx context.Context, id int64) (bool, error) {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ForceReset: begin: %w", err)
	}
	defer dbtx.Rollback()

	var notes string
	err = dbtx.QueryRowContext(ctx,
		`SELECT COALESCE(notes, '') FROM transactions WHERE transaction_id = $1 FOR UPDATE`,
		id).Scan(&notes)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ForceReset: read: %w", err)
	}

	_, err = dbtx.ExecContext(ctx,
		`UPDATE transactions SET status = 'pending', notes = $2 WHERE transaction_id = $1`,
		id, domain.StripAuditNotes(notes))
	if err != nil {
		return false, fmt.Errorf("ForceReset: update: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return false, fmt.Errorf("ForceReset: commit: %w", err)
	}
	return true, nil
}

// Insert writes one transaction and returns its generated id. Used by
// the seed command.
func (s *TransactionStore) Insert(ctx context.Context, tx domain.Transaction) (int64, error) {
	const q = `
		INSERT INTO transactions (date, amount, merchant, category, notes, status, account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING transaction_id`

	var id int64
	err := s.db.QueryRowContext(ctx, q,
		tx.Date, tx.Amount, tx.Merchant, tx.Category, tx.Notes, string(tx.Status), tx.AccountID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Insert: %w", err)
	}
	return id, nil
}
