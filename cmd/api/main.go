package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"fintrack/internal/api/handlers"
	"fintrack/internal/api/middleware"
	"fintrack/internal/assistant"
	"fintrack/internal/config"
	"fintrack/internal/jobs"
	"fintrack/internal/jobs/inmemory"
	"fintrack/internal/logger"
	"fintrack/internal/postgres"
	"fintrack/internal/search"
	"fintrack/internal/txnstate"
)

func main() {
	var (
		port = flag.String("port", "8080", "HTTP server port")
	)
	flag.Parse()

	log := logger.New()
	cfg := config.Load()

	ctx := context.Background()

	db, err := postgres.Open(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Stores
	txnStore := postgres.NewTransactionStore(db)
	accountStore := postgres.NewAccountStore(db)
	searchStore := postgres.NewSearchStore(db)
	completionStore := postgres.NewCompletionStore(db)
	queryRunner := postgres.NewQueryRunner(db)

	// Services
	manager := txnstate.New(txnStore, log, cfg.OpTimeout)

	var embedder search.Embedder
	var model assistant.ModelClient
	if cfg.Gemini.APIKey != "" {
		embedder = search.NewGeminiEmbedder(cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Gemini.EmbeddingDims)
		model = assistant.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	} else {
		log.Warn().Msg("No Gemini API key configured - assistant disabled, semantic search degrades to fuzzy")
	}

	searchService := search.NewService(searchStore, embedder, log,
		cfg.Search.FuzzyMinScore, cfg.Search.SemanticMinScore)

	var assistantHandler *handlers.AssistantHandler
	if model != nil {
		assistantService := assistant.NewService(completionStore, queryRunner, model, log)
		assistantHandler = handlers.NewAssistantHandler(assistantService, log)
	}

	// Job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		embedJob, ok := job.(*jobs.EmbedBatchJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		if embedder == nil {
			return fmt.Errorf("no embedding backend configured")
		}

		log.Info().
			Str("job_id", embedJob.JobID).
			Int("batch_size", embedJob.BatchSize).
			Msg("Processing embedding backfill job")

		n, err := search.Backfill(ctx, searchStore, embedder, embedJob.BatchSize, log)
		embedJob.Processed = n
		if err != nil {
			log.Error().Err(err).Str("job_id", embedJob.JobID).Msg("Embedding backfill failed")
			return err
		}

		log.Info().Str("job_id", embedJob.JobID).Int("processed", n).Msg("Embedding backfill completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Handlers
	transactionsHandler := handlers.NewTransactionsHandler(manager, log)
	accountsHandler := handlers.NewAccountsHandler(accountStore, log)
	searchHandler := handlers.NewSearchHandler(searchService, log)
	embeddingsHandler := handlers.NewEmbeddingsHandler(jobQueue, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	// Transactions endpoints
	mux.HandleFunc("/api/transactions/pending", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListPending(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.Stats(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// POST /api/transactions/{id}/approve and /api/transactions/{id}/cancel
	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, action, ok := splitIDAction(strings.TrimPrefix(r.URL.Path, "/api/transactions/"))
		if !ok {
			middleware.WriteError(w, http.StatusBadRequest, "Expected /api/transactions/{id}/{approve|cancel}")
			return
		}

		switch action {
		case "approve":
			transactionsHandler.Approve(w, r, id)
		case "cancel":
			transactionsHandler.Cancel(w, r, id)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Unknown transaction action")
		}
	})

	// POST /api/admin/transactions/{id}/reset
	mux.HandleFunc("/api/admin/transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id, action, ok := splitIDAction(strings.TrimPrefix(r.URL.Path, "/api/admin/transactions/"))
		if !ok || action != "reset" {
			middleware.WriteError(w, http.StatusBadRequest, "Expected /api/admin/transactions/{id}/reset")
			return
		}

		transactionsHandler.Reset(w, r, id)
	})

	// Accounts endpoints
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			accountsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Search endpoint
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			searchHandler.Search(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Assistant endpoints
	mux.HandleFunc("/api/assistant/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if assistantHandler == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Assistant is not configured")
			return
		}
		assistantHandler.Query(w, r)
	})

	mux.HandleFunc("/api/assistant/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if assistantHandler == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Assistant is not configured")
			return
		}
		assistantHandler.History(w, r)
	})

	// Embedding backfill endpoint
	mux.HandleFunc("/api/admin/embeddings/backfill", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			embeddingsHandler.Backfill(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}

// splitIDAction parses "{id}/{action}" path suffixes.
func splitIDAction(path string) (int64, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		return 0, "", false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, parts[1], true
}
