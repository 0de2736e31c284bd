package postgres

import (
	"context"
	"fmt"

	"fintrack/internal/domain"
)

// ListMissingEmbeddings returns transactions without a stored embedding,
// oldest id first.
func (s *SearchStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.Transaction, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE embedding IS NULL
		ORDER BY transaction_id
		LIMIT $1`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("ListMissingEmbeddings: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListMissingEmbeddings: scan: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListMissingEmbeddings: %w", err)
	}
	return out, nil
}

// SetEmbedding stores the precomputed embedding for a transaction.
func (s *SearchStore) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	const q = `UPDATE transactions SET embedding = $2::vector WHERE transaction_id = $1`

	if _, err := s.db.ExecContext(ctx, q, id, vectorLiteral(embedding)); err != nil {
		return fmt.Errorf("SetEmbedding: %w", err)
	}
	return nil
}
