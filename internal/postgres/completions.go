package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fintrack/internal/domain"
)

// CompletionStore persists assistant interactions in the completions
// table.
type CompletionStore struct {
	db *sql.DB
}

// NewCompletionStore creates a completion store on db.
func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

// SaveCompletion appends one prompt/result pair.
func (s *CompletionStore) SaveCompletion(ctx context.Context, prompt string, result json.RawMessage) (*domain.Completion, error) {
	const q = `
		INSERT INTO completions (prompt, result)
		VALUES ($1, $2)
		RETURNING id, created_at`

	c := domain.Completion{Prompt: prompt, Result: result}
	if err := s.db.QueryRowContext(ctx, q, prompt, []byte(result)).Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("SaveCompletion: %w", err)
	}
	return &c, nil
}

// ListCompletions returns the newest completions first.
func (s *CompletionStore) ListCompletions(ctx context.Context, limit int) ([]domain.Completion, error) {
	const q = `
		SELECT id, prompt, result, created_at
		FROM completions
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("ListCompletions: %w", err)
	}
	defer rows.Close()

	var out []domain.Completion
	for rows.Next() {
		var c domain.Completion
		var result []byte
		if err := rows.Scan(&c.ID, &c.Prompt, &result, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListCompletions: scan: %w", err)
		}
		c.Result = json.RawMessage(result)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListCompletions: %w", err)
	}
	return out, nil
}
