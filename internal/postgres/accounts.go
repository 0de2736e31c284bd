package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fintrack/internal/domain"
)

// AccountStore reads and writes the accounts table.
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates an account store on db.
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// List returns all accounts ordered by name.
func (s *AccountStore) List(ctx context.Context) ([]domain.Account, error) {
	const q = `
		SELECT account_id, account_name, current_balance
		FROM accounts
		ORDER BY account_name`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.AccountID, &a.AccountName, &a.CurrentBalance); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return out, nil
}

// Upsert inserts an account or updates its balance when the name already
// exists, returning the account id. Used by the seed command.
func (s *AccountStore) Upsert(ctx context.Context, a domain.Account) (int64, error) {
	const q = `
		INSERT INTO accounts (account_name, current_balance)
		VALUES ($1, $2)
		ON CONFLICT (account_name)
		DO UPDATE SET current_balance = EXCLUDED.current_balance
		RETURNING account_id`

	var id int64
	if err := s.db.QueryRowContext(ctx, q, a.AccountName, a.CurrentBalance).Scan(&id); err != nil {
		return 0, fmt.Errorf("Upsert: %w", err)
	}
	return id, nil
}
