// Package search implements the three-tier transaction search: exact
// substring matching, trigram fuzzy matching, and vector-embedding
// similarity. Each tier rides a database capability; when a capability is
// missing the request degrades to the next weaker tier and says so.
package search

import "fmt"

// Strategy names one search tier, strongest to weakest:
// semantic > fuzzy > exact.
type Strategy string

const (
	// StrategyExact is case-insensitive substring matching (ILIKE).
	StrategyExact Strategy = "exact"
	// StrategyFuzzy is trigram similarity (pg_trgm), typo-tolerant.
	StrategyFuzzy Strategy = "fuzzy"
	// StrategySemantic is cosine similarity over precomputed embeddings
	// (pgvector).
	StrategySemantic Strategy = "semantic"
)

// ParseStrategy converts a raw string into a Strategy.
func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(raw) {
	case StrategyExact, StrategyFuzzy, StrategySemantic:
		return Strategy(raw), nil
	}
	return "", fmt.Errorf("unknown search strategy %q", raw)
}

// Capabilities describes which backing features the store currently has.
type Capabilities struct {
	// Trigram is true when the pg_trgm extension is installed.
	Trigram bool `json:"trigram"`
	// Vector is true when the pgvector extension is installed and the
	// embedding column exists.
	Vector bool `json:"vector"`
	// EmbeddedRows counts transactions with a precomputed embedding.
	EmbeddedRows int64 `json:"embedded_rows"`
}

// Supports reports whether the strategy's prerequisites are present.
// Exact has none. Semantic additionally needs at least one stored
// embedding, otherwise there is nothing to rank against.
func (c Capabilities) Supports(s Strategy) bool {
	switch s {
	case StrategyExact:
		return true
	case StrategyFuzzy:
		return c.Trigram
	case StrategySemantic:
		return c.Vector && c.EmbeddedRows > 0
	}
	return false
}

// fallback maps each strategy to the next weaker one.
var fallback = map[Strategy]Strategy{
	StrategySemantic: StrategyFuzzy,
	StrategyFuzzy:    StrategyExact,
}

// Resolve picks the strongest usable strategy at or below the requested
// one. haveEmbedder gates semantic: without a way to embed the incoming
// query string the stored embeddings cannot be ranked. degraded is true
// whenever the effective strategy is weaker than requested.
func Resolve(requested Strategy, caps Capabilities, haveEmbedder bool) (effective Strategy, degraded bool) {
	effective = requested
	for effective != StrategyExact {
		if caps.Supports(effective) && (effective != StrategySemantic || haveEmbedder) {
			break
		}
		effective = fallback[effective]
		degraded = true
	}
	return effective, degraded
}
