// Package app wires the research hub's dependencies and runs its
// serving modes: the REST API, the observability server and the
// background stats worker.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/airesearchhub/research-hub/internal/analysis"
	"github.com/airesearchhub/research-hub/internal/embeddings"
	"github.com/airesearchhub/research-hub/internal/fulltext"
	"github.com/airesearchhub/research-hub/internal/httpapi"
	"github.com/airesearchhub/research-hub/internal/platform/config"
	"github.com/airesearchhub/research-hub/internal/platform/observability"
	"github.com/airesearchhub/research-hub/internal/platform/worker"
	"github.com/airesearchhub/research-hub/internal/search"
	db "github.com/airesearchhub/research-hub/internal/storage"
)

const llmAPIKeyMock = "mock"

// App holds the wired application components.
type App struct {
	cfg      *config.Config
	db       *db.DB
	logger   *zerolog.Logger
	searcher *search.Service
	s2       *search.SemanticScholarProvider
	analyzer analysis.Client
	embedder embeddings.Client
	pages    *fulltext.Service
}

// New wires all components from configuration.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	s2 := search.NewSemanticScholarProvider(search.SemanticScholarConfig{
		BaseURL:        cfg.SemanticScholarBaseURL,
		APIKey:         cfg.SemanticScholarAPIKey,
		RequestsPerMin: cfg.SemanticScholarRPM,
		Timeout:        cfg.SemanticScholarTimeout,
	})

	registry := search.NewProviderRegistry()
	registry.Register(s2)
	registry.Register(search.NewArxivProvider(search.ArxivConfig{
		BaseURL:        cfg.ArxivBaseURL,
		RequestsPerMin: cfg.ArxivRPM,
		Timeout:        cfg.ArxivTimeout,
	}))

	app := &App{
		cfg:      cfg,
		db:       database,
		logger:   logger,
		searcher: search.NewService(registry, logger),
		s2:       s2,
		analyzer: newAnalyzer(cfg, logger),
	}

	if cfg.EmbeddingsEnabled {
		app.embedder = embeddings.New(embeddings.Config{
			BaseURL:    cfg.LLMBaseURL,
			APIKey:     cfg.LLMAPIKey,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDimensions,
			RateLimit:  cfg.LLMRateLimitRPS,
		})
	}

	if cfg.FullTextEnabled {
		app.pages = fulltext.NewService(fulltext.NewFetcher(cfg.WebFetchRPS, cfg.WebFetchTimeout, cfg.UserAgent))
	}

	return app
}

func newAnalyzer(cfg *config.Config, logger *zerolog.Logger) analysis.Client {
	if cfg.LLMAPIKey == llmAPIKeyMock {
		return analysis.NewMockClient()
	}

	return analysis.NewOllama(analysis.OllamaConfig{
		BaseURL:      cfg.LLMBaseURL,
		APIKey:       cfg.LLMAPIKey,
		Model:        cfg.LLMModel,
		Temperature:  cfg.LLMTemperature,
		TopP:         cfg.LLMTopP,
		RateLimitRPS: cfg.LLMRateLimitRPS,
		MaxInFlight:  cfg.AnalysisMaxInFlight,
	}, logger)
}

// RunServe runs the API server, the health server and the stats worker
// until the context is canceled or one of them fails.
func (a *App) RunServe(ctx context.Context) error {
	apiServer := httpapi.NewServer(
		a.cfg,
		a.db,
		a.searcher,
		a.s2,
		a.analyzer,
		a.embedder,
		pageExtractor(a.pages),
		a.logger,
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return apiServer.Start(groupCtx)
	})

	group.Go(func() error {
		return observability.NewServer(a.db, a.cfg.HealthPort, a.logger).Start(groupCtx)
	})

	group.Go(func() error {
		return a.runStatsWorker(groupCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}

// pageExtractor avoids passing a typed nil into the server's interface field.
func pageExtractor(pages *fulltext.Service) httpapi.PageExtractor {
	if pages == nil {
		return nil
	}

	return pages
}

// runStatsWorker periodically refreshes the analyzed-paper gauges.
func (a *App) runStatsWorker(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:         "stats",
		PollInterval: a.cfg.StatsRefreshInterval,
		Process: func(ctx context.Context) error {
			stats, err := a.db.PaperStats(ctx)
			if err != nil {
				return fmt.Errorf("refresh paper stats: %w", err)
			}

			observability.AnalyzedPapersTotal.WithLabelValues("arxiv").Set(float64(stats.ArxivPapers))
			observability.AnalyzedPapersTotal.WithLabelValues("semantic_scholar").Set(float64(stats.SemanticScholarPapers))

			return nil
		},
		Logger: a.logger,
	})
}

// Embedder exposes the embedding client for maintenance tools.
func (a *App) Embedder() embeddings.Client {
	return a.embedder
}

// DB exposes the database for maintenance tools.
func (a *App) DB() *db.DB {
	return a.db
}
