// Command backfill computes embedding vectors for analyzed papers that
// were stored before embeddings were enabled.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/airesearchhub/research-hub/internal/core/domain"
	"github.com/airesearchhub/research-hub/internal/embeddings"
	db "github.com/airesearchhub/research-hub/internal/storage"
)

const (
	defaultBatchSize  = 100
	defaultBaseURL    = "http://localhost:11434/v1"
	defaultModel      = "nomic-embed-text"
	defaultDimensions = 768
	errFmt            = "%v\n"
)

var (
	errDSNRequired    = errors.New("POSTGRES_DSN is required (or provide -dsn)")
	errBatchMustBePos = errors.New("batch size must be positive")
	errNoProgress     = errors.New("no papers embedded in batch")
)

// paperStore is the subset of storage used by the backfill.
type paperStore interface {
	SourceIDsMissingEmbedding(ctx context.Context, limit int) ([]string, error)
	GetAnalysisBySourceID(ctx context.Context, sourceID string) (*domain.AnalyzedPaper, error)
	SetPaperEmbedding(ctx context.Context, sourceID string, embedding []float32) error
}

type backfillConfig struct {
	dsn        string
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	dryRun     bool
}

func main() {
	cfg := parseFlags()

	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}

	if err := runBackfill(cfg); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}
}

func parseFlags() backfillConfig {
	cfg := backfillConfig{}

	flag.StringVar(&cfg.dsn, "dsn", os.Getenv("POSTGRES_DSN"), "Postgres DSN")
	flag.StringVar(&cfg.baseURL, "base-url", defaultBaseURL, "Embedding endpoint base URL")
	flag.StringVar(&cfg.model, "model", defaultModel, "Embedding model name")
	flag.IntVar(&cfg.dimensions, "dimensions", defaultDimensions, "Embedding vector dimensions")
	flag.IntVar(&cfg.batchSize, "batch", defaultBatchSize, "Papers to process per batch")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "List papers missing embeddings without writing")

	flag.Parse()

	return cfg
}

func validateConfig(cfg backfillConfig) error {
	if cfg.dsn == "" {
		return errDSNRequired
	}

	if cfg.batchSize <= 0 {
		return errBatchMustBePos
	}

	return nil
}

func runBackfill(cfg backfillConfig) error {
	ctx := context.Background()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	database, err := db.New(ctx, cfg.dsn, &logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	embedder := embeddings.New(embeddings.Config{
		BaseURL:    cfg.baseURL,
		APIKey:     os.Getenv("LLM_API_KEY"),
		Model:      cfg.model,
		Dimensions: cfg.dimensions,
	})

	return backfillAll(ctx, database, embedder, cfg, &logger)
}

// backfillAll processes batches until no papers are missing embeddings.
// Failed papers stay unembedded and get re-selected, so a batch that
// embeds nothing would repeat forever; it aborts the run instead.
func backfillAll(ctx context.Context, store paperStore, embedder embeddings.Client, cfg backfillConfig, logger *zerolog.Logger) error {
	total := 0

	for {
		selected, embedded, err := backfillBatch(ctx, store, embedder, cfg, logger)
		if err != nil {
			return err
		}

		total += embedded

		if selected < cfg.batchSize || cfg.dryRun {
			break
		}

		if embedded == 0 {
			return fmt.Errorf("%w: %d papers keep failing", errNoProgress, selected)
		}
	}

	logger.Info().Int("count", total).Msg("backfill complete")

	return nil
}

func backfillBatch(
	ctx context.Context,
	store paperStore,
	embedder embeddings.Client,
	cfg backfillConfig,
	logger *zerolog.Logger,
) (selected, embedded int, err error) {
	sourceIDs, err := store.SourceIDsMissingEmbedding(ctx, cfg.batchSize)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list papers missing embeddings: %w", err)
	}

	for _, sourceID := range sourceIDs {
		if cfg.dryRun {
			fmt.Println(sourceID)
			continue
		}

		if err := embedPaper(ctx, store, embedder, sourceID); err != nil {
			logger.Error().Err(err).Str("source_id", sourceID).Msg("failed to embed paper")
			continue
		}

		embedded++
	}

	return len(sourceIDs), embedded, nil
}

func embedPaper(ctx context.Context, store paperStore, embedder embeddings.Client, sourceID string) error {
	stored, err := store.GetAnalysisBySourceID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to load analysis: %w", err)
	}

	vector, err := embedder.GetEmbedding(ctx, embeddingText(stored))
	if err != nil {
		return fmt.Errorf("failed to compute embedding: %w", err)
	}

	if err := store.SetPaperEmbedding(ctx, sourceID, vector); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	return nil
}

func embeddingText(paper *domain.AnalyzedPaper) string {
	parts := []string{paper.Paper.Title}

	if paper.Paper.Abstract != "" {
		parts = append(parts, paper.Paper.Abstract)
	} else if paper.Analysis.Summary != "" {
		parts = append(parts, paper.Analysis.Summary)
	}

	return strings.Join(parts, "\n\n")
}
