package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/domain"
	"fintrack/internal/search"
)

// SearchStore implements the three search tiers plus the embedding
// backfill on PostgreSQL.
type SearchStore struct {
	db *sql.DB
}

// NewSearchStore creates a search store on db.
func NewSearchStore(db *sql.DB) *SearchStore {
	return &SearchStore{db: db}
}

// Capabilities probes the installed extensions and counts embedded rows.
// A missing embedding column reads as zero embedded rows, not an error.
func (s *SearchStore) Capabilities(ctx context.Context) (search.Capabilities, error) {
	var caps search.Capabilities

	const extQ = `
		SELECT
			EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_trgm'),
			EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'vector')`
	if err := s.db.QueryRowContext(ctx, extQ).Scan(&caps.Trigram, &caps.Vector); err != nil {
		return search.Capabilities{}, fmt.Errorf("Capabilities: extensions: %w", err)
	}

	if caps.Vector {
		const colQ = `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'transactions' AND column_name = 'embedding'
			)`
		var hasColumn bool
		if err := s.db.QueryRowContext(ctx, colQ).Scan(&hasColumn); err != nil {
			return search.Capabilities{}, fmt.Errorf("Capabilities: embedding column: %w", err)
		}
		caps.Vector = hasColumn
	}

	if caps.Vector {
		const countQ = `SELECT COUNT(*) FROM transactions WHERE embedding IS NOT NULL`
		if err := s.db.QueryRowContext(ctx, countQ).Scan(&caps.EmbeddedRows); err != nil {
			return search.Capabilities{}, fmt.Errorf("Capabilities: embedded rows: %w", err)
		}
	}

	return caps, nil
}

// SearchExact matches the query as a case-insensitive substring of
// merchant or notes.
func (s *SearchStore) SearchExact(ctx context.Context, query string, limit int) ([]search.Hit, error) {
	q := fmt.Sprintf(`
		SELECT %s
		FROM transactions
		WHERE status = 'approved'
		  AND (merchant ILIKE $1 OR notes ILIKE $1)
		ORDER BY date DESC, transaction_id DESC
		LIMIT $2`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("SearchExact: %w", err)
	}
	defer rows.Close()

	var hits []search.Hit
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("SearchExact: scan: %w", err)
		}
		hits = append(hits, search.Hit{Transaction: tx})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SearchExact: %w", err)
	}
	return hits, nil
}

// SearchFuzzy ranks by the best trigram similarity across merchant and
// notes, keeping rows at or above minScore. Exact substring matches are
// unioned in so short queries below the similarity floor still hit.
func (s *SearchStore) SearchFuzzy(ctx context.Context, query string, minScore float64, limit int) ([]search.Hit, error) {
	q := fmt.Sprintf(`
		SELECT %s,
			GREATEST(
				similarity(COALESCE(merchant, ''), $1),
				similarity(COALESCE(notes, ''), $1)
			) AS score
		FROM transactions
		WHERE status = 'approved'
		  AND (
			GREATEST(
				similarity(COALESCE(merchant, ''), $1),
				similarity(COALESCE(notes, ''), $1)
			) >= $2
			OR merchant ILIKE $3 OR notes ILIKE $3
		  )
		ORDER BY score DESC, date DESC
		LIMIT $4`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, q, query, minScore, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("SearchFuzzy: %w", err)
	}
	defer rows.Close()

	hits, err := scanScoredHits(rows)
	if err != nil {
		return nil, fmt.Errorf("SearchFuzzy: %w", err)
	}
	return hits, nil
}

// SearchSemantic ranks stored embeddings by cosine similarity to the
// query embedding, keeping rows at or above minScore. Rows without an
// embedding never match.
func (s *SearchStore) SearchSemantic(ctx context.Context, embedding []float32, minScore float64, limit int) ([]search.Hit, error) {
	q := fmt.Sprintf(`
		SELECT %s, 1 - (embedding <=> $1::vector) AS score
		FROM transactions
		WHERE status = 'approved'
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1::vector) >= $2
		ORDER BY score DESC
		LIMIT $3`, transactionColumns)

	rows, err := s.db.QueryContext(ctx, q, vectorLiteral(embedding), minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("SearchSemantic: %w", err)
	}
	defer rows.Close()

	hits, err := scanScoredHits(rows)
	if err != nil {
		return nil, fmt.Errorf("SearchSemantic: %w", err)
	}
	return hits, nil
}

func scanScoredHits(rows *sql.Rows) ([]search.Hit, error) {
	var hits []search.Hit
	for rows.Next() {
		var tx domain.Transaction
		var status string
		var score float64
		err := rows.Scan(&tx.TransactionID, &tx.Date, &tx.Amount,
			&tx.Merchant, &tx.Category, &tx.Notes, &status, &tx.AccountID, &score)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tx.Status = domain.Status(status)
		s := score
		hits = append(hits, search.Hit{Transaction: tx, Score: &s})
	}
	return hits, rows.Err()
}

// vectorLiteral renders an embedding in pgvector's text format,
// e.g. [0.1,0.2,0.3].
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
