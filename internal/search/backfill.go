package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"fintrack/internal/domain"
)

// EmbeddingStore is the write side of the out-of-band embedding batch job.
type EmbeddingStore interface {
	// ListMissingEmbeddings returns transactions without an embedding,
	// oldest id first, at most limit rows.
	ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.Transaction, error)

	// SetEmbedding stores the precomputed embedding for a transaction.
	SetEmbedding(ctx context.Context, id int64, embedding []float32) error
}

// EmbeddingText builds the text that gets embedded for a transaction:
// merchant plus notes, the same fields the search tiers match against.
func EmbeddingText(tx domain.Transaction) string {
	return strings.TrimSpace(tx.Merchant + " " + tx.Notes)
}

// Backfill embeds transactions that have no stored embedding yet,
// chunkSize at a time, until none remain or ctx is cancelled. It returns
// how many embeddings were written. A transaction whose embedding text is
// empty is skipped without error and retried on the next run.
func Backfill(ctx context.Context, store EmbeddingStore, embedder Embedder, chunkSize int, log zerolog.Logger) (int, error) {
	if chunkSize <= 0 {
		chunkSize = 100
	}

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		txns, err := store.ListMissingEmbeddings(ctx, chunkSize)
		if err != nil {
			return processed, fmt.Errorf("Backfill: list missing embeddings: %w", err)
		}
		if len(txns) == 0 {
			return processed, nil
		}

		wrote := 0
		for _, tx := range txns {
			text := EmbeddingText(tx)
			if text == "" {
				continue
			}

			embedding, err := embedder.Embed(ctx, text)
			if err != nil {
				return processed, fmt.Errorf("Backfill: embed transaction %d: %w", tx.TransactionID, err)
			}

			if err := store.SetEmbedding(ctx, tx.TransactionID, embedding); err != nil {
				return processed, fmt.Errorf("Backfill: store embedding for %d: %w", tx.TransactionID, err)
			}

			processed++
			wrote++
		}

		log.Info().Int("chunk", len(txns)).Int("total", processed).Msg("Embedded transaction chunk")

		// Every remaining row was skipped for empty text; stop rather
		// than spinning on the same chunk.
		if wrote == 0 && len(txns) < chunkSize {
			return processed, nil
		}
		if wrote == 0 {
			return processed, fmt.Errorf("Backfill: chunk of %d transactions had no embeddable text", len(txns))
		}
	}
}
