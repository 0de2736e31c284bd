package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"fintrack/internal/domain"
	"fintrack/internal/logger"
)

func TestValidateSelect(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain select", "SELECT SUM(amount) FROM transactions", false},
		{"with trailing semicolon", "SELECT 1;", false},
		{"cte", "WITH t AS (SELECT 1) SELECT * FROM t", false},
		{"lowercase", "select merchant from transactions", false},
		{"empty", "   ", true},
		{"update", "UPDATE transactions SET status = 'approved'", true},
		{"delete", "DELETE FROM transactions", true},
		{"drop", "DROP TABLE transactions", true},
		{"stacked statements", "SELECT 1; DELETE FROM transactions", true},
		{"select wrapping insert", "SELECT 1 FROM t WHERE EXISTS (INSERT INTO x VALUES (1))", true},
		{"substring is not a keyword", "SELECT * FROM transactions WHERE category ILIKE '%recreation%'", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateSelect(tt.sql)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSelect(%q) error = %v, wantErr %v", tt.sql, err, tt.wantErr)
			}
		})
	}
}

func TestParseModelResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantSQL string
		wantErr bool
	}{
		{
			"clean json",
			`{"sql": "SELECT 1", "explanation": "trivial"}`,
			"SELECT 1", false,
		},
		{
			"fenced json",
			"```json\n{\"sql\": \"SELECT 1\", \"explanation\": \"x\"}\n```",
			"SELECT 1", false,
		},
		{
			"json embedded in prose",
			"Here is the query:\n{\"sql\": \"SELECT 2\"}\nHope that helps!",
			"SELECT 2", false,
		},
		{"no json at all", "I cannot answer that.", "", true},
		{"missing sql field", `{"explanation": "nothing"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseModelResponse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseModelResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.SQL != tt.wantSQL {
				t.Errorf("sql = %q, want %q", got.SQL, tt.wantSQL)
			}
		})
	}
}

type mockModel struct {
	response string
	err      error
}

func (m *mockModel) Generate(ctx context.Context, prompt string) (string, error) {
	return m.response, m.err
}

type mockRunner struct {
	gotSQL string
	rows   []map[string]any
}

func (m *mockRunner) RunSelect(ctx context.Context, sqlText string, maxRows int) ([]map[string]any, error) {
	m.gotSQL = sqlText
	return m.rows, nil
}

type mockCompletionStore struct {
	saved []domain.Completion
}

func (m *mockCompletionStore) SaveCompletion(ctx context.Context, prompt string, result json.RawMessage) (*domain.Completion, error) {
	c := domain.Completion{ID: int64(len(m.saved) + 1), Prompt: prompt, Result: result}
	m.saved = append(m.saved, c)
	return &c, nil
}

func (m *mockCompletionStore) ListCompletions(ctx context.Context, limit int) ([]domain.Completion, error) {
	out := make([]domain.Completion, 0, limit)
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.saved[i])
	}
	return out, nil
}

func TestAsk(t *testing.T) {
	model := &mockModel{response: `{"sql": "SELECT SUM(amount) AS total FROM transactions WHERE category ILIKE '%groceries%'", "explanation": "grocery total"}`}
	runner := &mockRunner{rows: []map[string]any{{"total": "60.00"}}}
	store := &mockCompletionStore{}
	svc := NewService(store, runner, model, logger.NewWithWriter(&strings.Builder{}))

	answer, err := svc.Ask(context.Background(), "How much did I spend on groceries?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Explanation != "grocery total" {
		t.Errorf("explanation = %q", answer.Explanation)
	}
	if len(answer.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(answer.Rows))
	}
	if !strings.HasPrefix(runner.gotSQL, "SELECT SUM(amount)") {
		t.Errorf("executed SQL = %q", runner.gotSQL)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d completions, want 1", len(store.saved))
	}
	if store.saved[0].Prompt != "How much did I spend on groceries?" {
		t.Errorf("saved prompt = %q", store.saved[0].Prompt)
	}
	if answer.CompletionID != 1 {
		t.Errorf("completion id = %d, want 1", answer.CompletionID)
	}
}

func TestAskRejectsMutatingSQL(t *testing.T) {
	model := &mockModel{response: `{"sql": "DELETE FROM transactions", "explanation": "oops"}`}
	runner := &mockRunner{}
	svc := NewService(&mockCompletionStore{}, runner, model, logger.NewWithWriter(&strings.Builder{}))

	if _, err := svc.Ask(context.Background(), "wipe everything"); err == nil {
		t.Fatal("Ask() with mutating SQL expected error")
	}
	if runner.gotSQL != "" {
		t.Errorf("rejected SQL still executed: %q", runner.gotSQL)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := &mockCompletionStore{}
	svc := NewService(store, &mockRunner{}, &mockModel{response: `{"sql": "SELECT 1"}`}, logger.NewWithWriter(&strings.Builder{}))

	for _, q := range []string{"first", "second", "third"} {
		if _, err := svc.Ask(context.Background(), q); err != nil {
			t.Fatalf("Ask(%q) error = %v", q, err)
		}
	}

	history, err := svc.History(context.Background(), 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Prompt != "third" || history[1].Prompt != "second" {
		t.Errorf("history order = [%q %q], want [third second]", history[0].Prompt, history[1].Prompt)
	}
}
