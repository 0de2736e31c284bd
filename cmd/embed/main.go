// Command embed backfills transaction embeddings in one shot, outside the
// API process. Run it after seeding or bulk imports; the API's semantic
// search tier only reads embeddings this (or the in-process job) wrote.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/postgres"
	"fintrack/internal/search"
)

func main() {
	var (
		chunkSize = flag.Int("chunk", 100, "Transactions to embed per chunk")
	)
	flag.Parse()

	log := logger.New()
	cfg := config.Load()

	if cfg.Gemini.APIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required to compute embeddings")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop cleanly between chunks on Ctrl-C.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Warn().Msg("Interrupted, finishing current chunk")
		cancel()
	}()

	db, err := postgres.Open(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	store := postgres.NewSearchStore(db)
	embedder := search.NewGeminiEmbedder(cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Gemini.EmbeddingDims)

	n, err := search.Backfill(ctx, store, embedder, *chunkSize, log)
	if err != nil {
		log.Fatal().Err(err).Int("processed", n).Msg("Backfill failed")
	}

	log.Info().Int("processed", n).Msg("Backfill complete")
}
