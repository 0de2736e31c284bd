package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// QueryRunner executes assistant-generated SELECT statements read-only.
type QueryRunner struct {
	db *sql.DB
}

// NewQueryRunner creates a query runner on db.
func NewQueryRunner(db *sql.DB) *QueryRunner {
	return &QueryRunner{db: db}
}

// RunSelect runs sqlText inside a read-only transaction and returns at
// most maxRows rows as generic maps. The read-only transaction is a
// second line of defense behind statement validation.
func (r *QueryRunner) RunSelect(ctx context.Context, sqlText string, maxRows int) ([]map[string]any, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("RunSelect: begin: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("RunSelect: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("RunSelect: columns: %w", err)
	}

	out := make([]map[string]any, 0, maxRows)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() && len(out) < maxRows {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("RunSelect: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RunSelect: %w", err)
	}
	return out, nil
}

// normalizeValue converts driver values into JSON-friendly types.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return v
	}
}
