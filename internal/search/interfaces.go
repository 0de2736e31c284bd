package search

import (
	"context"

	"fintrack/internal/domain"
)

// Hit is one search result. Score is set by the similarity strategies
// (fuzzy, semantic) and nil for exact matches.
type Hit struct {
	domain.Transaction
	Score *float64 `json:"score,omitempty"`
}

// Result carries the hits plus what actually ran. Effective differs from
// Requested when a capability was missing and the request degraded.
type Result struct {
	Requested Strategy `json:"requested"`
	Effective Strategy `json:"effective"`
	Degraded  bool     `json:"degraded"`
	Hits      []Hit    `json:"hits"`
}

// Store is the database side of search. All tiers match approved
// transactions only. Similarity strategies return hits ranked by score
// descending, already filtered by the minimum score.
type Store interface {
	// Capabilities probes which search features are currently available.
	Capabilities(ctx context.Context) (Capabilities, error)

	// SearchExact matches the query as a case-insensitive substring of
	// merchant or notes.
	SearchExact(ctx context.Context, query string, limit int) ([]Hit, error)

	// SearchFuzzy ranks by trigram similarity against merchant and notes.
	SearchFuzzy(ctx context.Context, query string, minScore float64, limit int) ([]Hit, error)

	// SearchSemantic ranks stored embeddings by cosine similarity to the
	// query embedding. It must only read precomputed embeddings.
	SearchSemantic(ctx context.Context, embedding []float32, minScore float64, limit int) ([]Hit, error)
}

// Embedder turns text into an embedding vector. The search path calls it
// at most once per request, for the incoming query string; transaction
// embeddings are produced out of band by the backfill job.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
