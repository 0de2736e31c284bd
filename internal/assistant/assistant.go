// Package assistant turns natural-language questions about the finance
// data into SQL via a hosted model, runs the generated query read-only,
// and keeps an append-only log of every interaction. It never touches
// transaction state.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"fintrack/internal/domain"
)

const (
	defaultMaxRows     = 100
	defaultHistorySize = 50
)

// Store persists assistant interactions.
type Store interface {
	// SaveCompletion appends one prompt/result pair to the log.
	SaveCompletion(ctx context.Context, prompt string, result json.RawMessage) (*domain.Completion, error)

	// ListCompletions returns the newest completions first.
	ListCompletions(ctx context.Context, limit int) ([]domain.Completion, error)
}

// QueryRunner executes a validated SELECT with a row cap.
type QueryRunner interface {
	RunSelect(ctx context.Context, sqlText string, maxRows int) ([]map[string]any, error)
}

// ModelClient generates text for a prompt.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service is the NL-to-SQL assistant.
type Service struct {
	store   Store
	runner  QueryRunner
	model   ModelClient
	log     zerolog.Logger
	maxRows int
}

// NewService creates an assistant service.
func NewService(store Store, runner QueryRunner, model ModelClient, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		runner:  runner,
		model:   model,
		log:     log,
		maxRows: defaultMaxRows,
	}
}

// Answer is the result of one assistant question.
type Answer struct {
	Question    string           `json:"question"`
	SQL         string           `json:"sql"`
	Explanation string           `json:"explanation,omitempty"`
	Rows        []map[string]any `json:"rows"`
	CompletionID int64           `json:"completion_id,omitempty"`
}

// modelResponse is the JSON shape the prompt asks the model for.
type modelResponse struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// Ask generates SQL for the question, executes it, and logs the
// interaction. The generated statement must be a single SELECT; anything
// else is rejected before execution.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("assistant: empty question")
	}

	raw, err := s.model.Generate(ctx, buildSQLPrompt(question))
	if err != nil {
		return nil, fmt.Errorf("assistant: generate SQL: %w", err)
	}

	parsed, err := parseModelResponse(raw)
	if err != nil {
		s.log.Warn().Str("raw", raw).Msg("Unparseable model response")
		return nil, fmt.Errorf("assistant: %w", err)
	}

	sqlText, err := validateSelect(parsed.SQL)
	if err != nil {
		s.log.Warn().Str("sql", parsed.SQL).Err(err).Msg("Rejected generated SQL")
		return nil, fmt.Errorf("assistant: %w", err)
	}

	rows, err := s.runner.RunSelect(ctx, sqlText, s.maxRows)
	if err != nil {
		return nil, fmt.Errorf("assistant: execute generated SQL: %w", err)
	}

	answer := &Answer{
		Question:    question,
		SQL:         sqlText,
		Explanation: parsed.Explanation,
		Rows:        rows,
	}

	resultJSON, err := json.Marshal(map[string]any{
		"sql":         sqlText,
		"explanation": parsed.Explanation,
		"row_count":   len(rows),
		"rows":        rows,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: marshal result: %w", err)
	}

	completion, err := s.store.SaveCompletion(ctx, question, resultJSON)
	if err != nil {
		// The answer is already computed; losing the log entry is worth a
		// warning, not a failed request.
		s.log.Error().Err(err).Msg("Failed to save completion")
	} else {
		answer.CompletionID = completion.ID
	}

	s.log.Info().Str("question", question).Int("rows", len(rows)).Msg("Assistant query answered")
	return answer, nil
}

// History returns recent completions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.Completion, error) {
	if limit <= 0 {
		limit = defaultHistorySize
	}
	return s.store.ListCompletions(ctx, limit)
}

// parseModelResponse extracts the {sql, explanation} object, tolerating
// code fences and surrounding prose the model was told not to emit.
func parseModelResponse(raw string) (*modelResponse, error) {
	clean := stripFences(raw)

	var resp modelResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		// Fall back to the outermost JSON object embedded in the text.
		start := strings.Index(clean, "{")
		end := strings.LastIndex(clean, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("model response is not JSON")
		}
		if err := json.Unmarshal([]byte(clean[start:end+1]), &resp); err != nil {
			return nil, fmt.Errorf("model response is not JSON: %w", err)
		}
	}

	if strings.TrimSpace(resp.SQL) == "" {
		return nil, fmt.Errorf("model response has no sql field")
	}
	return &resp, nil
}

// stripFences removes Markdown code fences if the model ignored the
// formatting instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

var forbiddenKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|vacuum|call|do|set|merge)\b`)

// validateSelect accepts exactly one SELECT (or WITH ... SELECT)
// statement and returns it with any trailing semicolon removed.
func validateSelect(sqlText string) (string, error) {
	s := strings.TrimSpace(sqlText)
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("generated SQL is empty")
	}

	if strings.Contains(s, ";") {
		return "", fmt.Errorf("generated SQL contains multiple statements")
	}

	upper := strings.ToUpper(s)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", fmt.Errorf("generated SQL is not a SELECT statement")
	}

	if m := forbiddenKeyword.FindString(s); m != "" {
		return "", fmt.Errorf("generated SQL contains forbidden keyword %q", strings.ToUpper(m))
	}

	return s, nil
}
