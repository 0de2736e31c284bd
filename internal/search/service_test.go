package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
	"fintrack/internal/logger"
)

func TestResolve(t *testing.T) {
	full := Capabilities{Trigram: true, Vector: true, EmbeddedRows: 42}

	tests := []struct {
		name         string
		requested    Strategy
		caps         Capabilities
		haveEmbedder bool
		wantStrategy Strategy
		wantDegraded bool
	}{
		{"exact always available", StrategyExact, Capabilities{}, false, StrategyExact, false},
		{"semantic fully available", StrategySemantic, full, true, StrategySemantic, false},
		{"fuzzy available", StrategyFuzzy, Capabilities{Trigram: true}, false, StrategyFuzzy, false},
		{"fuzzy without trigram", StrategyFuzzy, Capabilities{}, false, StrategyExact, true},
		{"semantic without vector", StrategySemantic, Capabilities{Trigram: true}, true, StrategyFuzzy, true},
		{"semantic without embeddings", StrategySemantic, Capabilities{Trigram: true, Vector: true}, true, StrategyFuzzy, true},
		{"semantic without embedder", StrategySemantic, full, false, StrategyFuzzy, true},
		{"semantic bare database", StrategySemantic, Capabilities{}, true, StrategyExact, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, degraded := Resolve(tt.requested, tt.caps, tt.haveEmbedder)
			if got != tt.wantStrategy || degraded != tt.wantDegraded {
				t.Errorf("Resolve(%s) = (%s, %v), want (%s, %v)",
					tt.requested, got, degraded, tt.wantStrategy, tt.wantDegraded)
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	if _, err := ParseStrategy("semantic"); err != nil {
		t.Errorf("ParseStrategy(semantic) error = %v", err)
	}
	if _, err := ParseStrategy("regex"); err == nil {
		t.Error("ParseStrategy(regex) expected error")
	}
}

// mockStore records which strategy ran and with what threshold.
type mockStore struct {
	caps    Capabilities
	capsErr error

	calledStrategy Strategy
	gotMinScore    float64
	gotEmbedding   []float32
	hits           []Hit
}

func (m *mockStore) Capabilities(ctx context.Context) (Capabilities, error) {
	return m.caps, m.capsErr
}

func (m *mockStore) SearchExact(ctx context.Context, query string, limit int) ([]Hit, error) {
	m.calledStrategy = StrategyExact
	return m.hits, nil
}

func (m *mockStore) SearchFuzzy(ctx context.Context, query string, minScore float64, limit int) ([]Hit, error) {
	m.calledStrategy = StrategyFuzzy
	m.gotMinScore = minScore
	return m.hits, nil
}

func (m *mockStore) SearchSemantic(ctx context.Context, embedding []float32, minScore float64, limit int) ([]Hit, error) {
	m.calledStrategy = StrategySemantic
	m.gotMinScore = minScore
	m.gotEmbedding = embedding
	return m.hits, nil
}

type mockEmbedder struct {
	calls int
	err   error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func testService(store Store, embedder Embedder) *Service {
	return NewService(store, embedder, logger.NewWithWriter(&strings.Builder{}), 0.1, 0.3)
}

func TestSearchSemanticEmbedsOnce(t *testing.T) {
	store := &mockStore{caps: Capabilities{Trigram: true, Vector: true, EmbeddedRows: 5}}
	embedder := &mockEmbedder{}
	svc := testService(store, embedder)

	res, err := svc.Search(context.Background(), "morning drink", Options{Strategy: StrategySemantic})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if embedder.calls != 1 {
		t.Errorf("embedder called %d times, want 1", embedder.calls)
	}
	if store.calledStrategy != StrategySemantic {
		t.Errorf("ran %s, want semantic", store.calledStrategy)
	}
	if store.gotMinScore != 0.3 {
		t.Errorf("semantic threshold = %g, want 0.3", store.gotMinScore)
	}
	if res.Degraded {
		t.Error("fully capable search reported degraded")
	}
	if len(store.gotEmbedding) == 0 {
		t.Error("semantic search ran without a query embedding")
	}
}

func TestSearchDegradesWithoutVector(t *testing.T) {
	store := &mockStore{caps: Capabilities{Trigram: true}}
	svc := testService(store, &mockEmbedder{})

	res, err := svc.Search(context.Background(), "coffee", Options{Strategy: StrategySemantic})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.calledStrategy != StrategyFuzzy {
		t.Errorf("ran %s, want fuzzy", store.calledStrategy)
	}
	if !res.Degraded || res.Requested != StrategySemantic || res.Effective != StrategyFuzzy {
		t.Errorf("degradation not surfaced: %+v", res)
	}
}

func TestSearchDegradesOnEmbeddingFailure(t *testing.T) {
	store := &mockStore{caps: Capabilities{Trigram: true, Vector: true, EmbeddedRows: 5}}
	svc := testService(store, &mockEmbedder{err: errors.New("quota exceeded")})

	res, err := svc.Search(context.Background(), "coffee", Options{Strategy: StrategySemantic})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.calledStrategy != StrategyFuzzy {
		t.Errorf("ran %s, want fuzzy after embed failure", store.calledStrategy)
	}
	if !res.Degraded {
		t.Error("embed failure did not surface as degraded")
	}
}

func TestSearchCapabilityProbeFailure(t *testing.T) {
	store := &mockStore{capsErr: errors.New("connection refused")}
	svc := testService(store, &mockEmbedder{})

	res, err := svc.Search(context.Background(), "coffee", Options{Strategy: StrategySemantic})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.calledStrategy != StrategyExact {
		t.Errorf("ran %s, want exact when probe fails", store.calledStrategy)
	}
	if !res.Degraded {
		t.Error("probe failure did not surface as degraded")
	}
}

func TestSearchMinScoreOverride(t *testing.T) {
	store := &mockStore{caps: Capabilities{Trigram: true}}
	svc := testService(store, nil)

	min := 0.42
	if _, err := svc.Search(context.Background(), "coffee", Options{Strategy: StrategyFuzzy, MinScore: &min}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if store.gotMinScore != 0.42 {
		t.Errorf("threshold = %g, want override 0.42", store.gotMinScore)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := testService(&mockStore{}, nil)
	if _, err := svc.Search(context.Background(), "   ", Options{}); err == nil {
		t.Error("empty query expected error")
	}
}

func TestEmbeddingText(t *testing.T) {
	tx := domain.Transaction{Merchant: "Blue Bottle", Notes: "team offsite"}
	if got := EmbeddingText(tx); got != "Blue Bottle team offsite" {
		t.Errorf("EmbeddingText() = %q", got)
	}
	if got := EmbeddingText(domain.Transaction{}); got != "" {
		t.Errorf("EmbeddingText(empty) = %q", got)
	}
}

// fakeEmbeddingStore drives Backfill in memory.
type fakeEmbeddingStore struct {
	missing []domain.Transaction
	stored  map[int64][]float32
}

func (f *fakeEmbeddingStore) ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range f.missing {
		if _, done := f.stored[tx.TransactionID]; done {
			continue
		}
		out = append(out, tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeEmbeddingStore) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	if f.stored == nil {
		f.stored = make(map[int64][]float32)
	}
	f.stored[id] = embedding
	return nil
}

func TestBackfill(t *testing.T) {
	mk := func(id int64, merchant string) domain.Transaction {
		return domain.Transaction{
			TransactionID: id,
			Date:          time.Now(),
			Amount:        decimal.NewFromInt(10),
			Merchant:      merchant,
			Status:        domain.StatusApproved,
		}
	}
	store := &fakeEmbeddingStore{
		missing: []domain.Transaction{mk(1, "Cafe"), mk(2, "Grocer"), mk(3, "Garage")},
	}

	n, err := Backfill(context.Background(), store, &mockEmbedder{}, 2, logger.NewWithWriter(&strings.Builder{}))
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Backfill() = %d, want 3", n)
	}
	if len(store.stored) != 3 {
		t.Errorf("stored %d embeddings, want 3", len(store.stored))
	}
}
