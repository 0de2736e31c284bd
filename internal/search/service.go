package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const defaultLimit = 20

// Service applies the strategy selection policy and runs the chosen tier.
type Service struct {
	store    Store
	embedder Embedder // nil when no embedding backend is configured
	log      zerolog.Logger

	fuzzyMinScore    float64
	semanticMinScore float64
}

// NewService creates a search service. embedder may be nil, in which case
// semantic requests degrade to fuzzy.
func NewService(store Store, embedder Embedder, log zerolog.Logger, fuzzyMinScore, semanticMinScore float64) *Service {
	return &Service{
		store:            store,
		embedder:         embedder,
		log:              log,
		fuzzyMinScore:    fuzzyMinScore,
		semanticMinScore: semanticMinScore,
	}
}

// Options tunes a single search request.
type Options struct {
	Strategy Strategy
	Limit    int
	// MinScore overrides the configured threshold for the effective
	// similarity strategy. Nil keeps the default.
	MinScore *float64
}

// Search runs the query with the strongest available strategy at or below
// the requested one.
func (s *Service) Search(ctx context.Context, query string, opts Options) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search: empty query")
	}

	requested := opts.Strategy
	if requested == "" {
		requested = StrategyExact
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	caps, err := s.store.Capabilities(ctx)
	if err != nil {
		// A failed probe is treated as "nothing beyond exact available".
		s.log.Warn().Err(err).Msg("Search capability probe failed, assuming exact only")
		caps = Capabilities{}
	}

	effective, degraded := Resolve(requested, caps, s.embedder != nil)

	// The query embedding is the single external call this path may make.
	var embedding []float32
	if effective == StrategySemantic {
		embedding, err = s.embedder.Embed(ctx, query)
		if err != nil {
			s.log.Warn().Err(err).Msg("Query embedding failed, degrading to weaker strategy")
			effective, _ = Resolve(fallback[StrategySemantic], caps, false)
			degraded = true
		}
	}

	if degraded {
		s.log.Warn().
			Str("requested", string(requested)).
			Str("effective", string(effective)).
			Msg("Search strategy degraded")
	}

	var hits []Hit
	switch effective {
	case StrategySemantic:
		hits, err = s.store.SearchSemantic(ctx, embedding, s.threshold(StrategySemantic, opts.MinScore), limit)
	case StrategyFuzzy:
		hits, err = s.store.SearchFuzzy(ctx, query, s.threshold(StrategyFuzzy, opts.MinScore), limit)
	default:
		hits, err = s.store.SearchExact(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %s strategy: %w", effective, err)
	}

	return &Result{
		Requested: requested,
		Effective: effective,
		Degraded:  degraded,
		Hits:      hits,
	}, nil
}

func (s *Service) threshold(strategy Strategy, override *float64) float64 {
	if override != nil {
		return *override
	}
	if strategy == StrategySemantic {
		return s.semanticMinScore
	}
	return s.fuzzyMinScore
}
