package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"fintrack/internal/api/middleware"
	"fintrack/internal/assistant"
	"fintrack/internal/domain"
	"fintrack/internal/jobs"
	"fintrack/internal/search"
)

// TransactionManager is the slice of the state manager the HTTP layer
// needs.
type TransactionManager interface {
	Cancel(ctx context.Context, id int64, reason string) (*domain.Confirmation, error)
	Approve(ctx context.Context, id int64, reason string) (*domain.Confirmation, error)
	ListPending(ctx context.Context, limit int) ([]domain.Transaction, error)
	StatsByStatus(ctx context.Context) (map[domain.Status]domain.StatusStats, error)
	ResetToPending(ctx context.Context, id int64) error
}

// TransactionsHandler handles transaction state endpoints.
type TransactionsHandler struct {
	manager TransactionManager
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(manager TransactionManager, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		manager: manager,
		log:     log,
	}
}

// ListPending handles GET /api/transactions/pending
func (h *TransactionsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit", 0)

	transactions, err := h.manager.ListPending(ctx, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list pending transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list pending transactions")
		return
	}

	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// Stats handles GET /api/transactions/stats
func (h *TransactionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.manager.StatsByStatus(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to aggregate transaction stats")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to aggregate transaction stats")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}

// transitionRequest is the body of approve and cancel calls.
type transitionRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/transactions/{id}/cancel
func (h *TransactionsHandler) Cancel(w http.ResponseWriter, r *http.Request, id int64) {
	h.transition(w, r, id, h.manager.Cancel, "Cancelled via dashboard")
}

// Approve handles POST /api/transactions/{id}/approve
func (h *TransactionsHandler) Approve(w http.ResponseWriter, r *http.Request, id int64) {
	h.transition(w, r, id, h.manager.Approve, "Approved via dashboard")
}

func (h *TransactionsHandler) transition(w http.ResponseWriter, r *http.Request, id int64,
	apply func(context.Context, int64, string) (*domain.Confirmation, error), defaultReason string) {

	var req transitionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.Reason == "" {
		req.Reason = defaultReason
	}

	conf, err := apply(r.Context(), id, req.Reason)
	if err != nil {
		h.writeTransitionError(w, err, id)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, conf)
}

// Reset handles POST /api/admin/transactions/{id}/reset
func (h *TransactionsHandler) Reset(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.manager.ResetToPending(r.Context(), id); err != nil {
		h.writeTransitionError(w, err, id)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": id,
		"status":         domain.StatusPending,
	})
}

func (h *TransactionsHandler) writeTransitionError(w http.ResponseWriter, err error, id int64) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Int64("transaction_id", id).Msg("Transaction operation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Transaction operation failed")
	}
}

// AccountLister is the account side of the store.
type AccountLister interface {
	List(ctx context.Context) ([]domain.Account, error)
}

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	accounts AccountLister
	log      zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accounts AccountLister, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
		log:      log,
	}
}

// List handles GET /api/accounts
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// Searcher runs one search request.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) (*search.Result, error)
}

// SearchHandler handles the transaction search endpoint.
type SearchHandler struct {
	searcher Searcher
	log      zerolog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searcher Searcher, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		log:      log,
	}
}

// Search handles GET /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		middleware.WriteError(w, http.StatusBadRequest, "q is required")
		return
	}

	opts := search.Options{Limit: queryInt(r, "limit", 0)}

	if raw := r.URL.Query().Get("strategy"); raw != "" {
		strategy, err := search.ParseStrategy(raw)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Strategy = strategy
	}

	if raw := r.URL.Query().Get("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil || minScore < 0 || minScore > 1 {
			middleware.WriteError(w, http.StatusBadRequest, "min_score must be a number between 0 and 1")
			return
		}
		opts.MinScore = &minScore
	}

	result, err := h.searcher.Search(r.Context(), query, opts)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("Search failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	if result.Hits == nil {
		result.Hits = []search.Hit{}
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Assistant answers natural-language questions.
type Assistant interface {
	Ask(ctx context.Context, question string) (*assistant.Answer, error)
	History(ctx context.Context, limit int) ([]domain.Completion, error)
}

// AssistantHandler handles the NL-to-SQL assistant endpoints.
type AssistantHandler struct {
	assistant Assistant
	log       zerolog.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(a Assistant, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: a,
		log:       log,
	}
}

// Query handles POST /api/assistant/query
func (h *AssistantHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Question == "" {
		middleware.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.assistant.Ask(r.Context(), req.Question)
	if err != nil {
		h.log.Error().Err(err).Msg("Assistant query failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Assistant query failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, answer)
}

// History handles GET /api/assistant/history
func (h *AssistantHandler) History(w http.ResponseWriter, r *http.Request) {
	completions, err := h.assistant.History(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assistant history")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list assistant history")
		return
	}

	if completions == nil {
		completions = []domain.Completion{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"completions": completions,
		"count":       len(completions),
	})
}

// EmbeddingsHandler enqueues embedding backfill jobs.
type EmbeddingsHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewEmbeddingsHandler creates a new embeddings handler.
func NewEmbeddingsHandler(publisher jobs.Publisher, log zerolog.Logger) *EmbeddingsHandler {
	return &EmbeddingsHandler{
		publisher: publisher,
		log:       log,
	}
}

// Backfill handles POST /api/admin/embeddings/backfill
func (h *EmbeddingsHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BatchSize int `json:"batch_size"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	job := &jobs.EmbedBatchJob{BatchSize: req.BatchSize}
	if err := h.publisher.PublishEmbedBatch(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue embedding backfill")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue embedding backfill")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Int("batch_size", job.BatchSize).Msg("Embedding backfill enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	if jobsList == nil {
		jobsList = []*jobs.EmbedBatchJob{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
