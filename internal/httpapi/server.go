// Package httpapi serves the research hub REST API consumed by the SPA
// frontend.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airesearchhub/research-hub/internal/analysis"
	"github.com/airesearchhub/research-hub/internal/embeddings"
	"github.com/airesearchhub/research-hub/internal/platform/config"
	"github.com/airesearchhub/research-hub/internal/platform/observability"
)

const (
	apiVersion        = "1.0.0"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	maxBodyBytes      = 1 << 20
)

// Server is the research hub API server.
type Server struct {
	cfg      *config.Config
	repo     Repository
	searcher Searcher
	papers   PaperSource
	analyzer analysis.Client
	embedder embeddings.Client // nil when embeddings are disabled
	pages    PageExtractor     // nil when fulltext backfill is disabled
	logger   *zerolog.Logger
}

// NewServer creates the API server. embedder and pages may be nil to
// disable the corresponding features.
func NewServer(
	cfg *config.Config,
	repo Repository,
	searcher Searcher,
	papers PaperSource,
	analyzer analysis.Client,
	embedder embeddings.Client,
	pages PageExtractor,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		repo:     repo,
		searcher: searcher,
		papers:   papers,
		analyzer: analyzer,
		embedder: embedder,
		pages:    pages,
		logger:   logger,
	}
}

// Handler builds the routed handler with CORS and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/health/ollama", s.handleOllamaHealth)
	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/paper/{id...}", s.handlePaper)
	mux.HandleFunc("GET /api/v1/paper/{id}/similar", s.handleSimilar)
	mux.HandleFunc("POST /api/v1/analyze/{id...}", s.handleAnalyze)
	mux.HandleFunc("GET /api/v1/analyses/recent", s.handleRecentAnalyses)
	mux.HandleFunc("GET /api/v1/analyses/stats", s.handleStats)

	mux.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/v1/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/v1/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("GET /api/v1/projects/{id}/users", s.handleProjectUsers)
	mux.HandleFunc("POST /api/v1/projects/{id}/users/{userID}", s.handleAddProjectUser)
	mux.HandleFunc("DELETE /api/v1/projects/{id}/users/{userID}", s.handleRemoveProjectUser)
	mux.HandleFunc("GET /api/v1/projects/{id}/datasets", s.handleProjectDatasets)

	mux.HandleFunc("POST /api/v1/datasets", s.handleCreateDataset)
	mux.HandleFunc("GET /api/v1/datasets/{id}", s.handleGetDataset)
	mux.HandleFunc("PUT /api/v1/datasets/{id}", s.handleUpdateDataset)
	mux.HandleFunc("DELETE /api/v1/datasets/{id}", s.handleDeleteDataset)

	mux.HandleFunc("POST /api/v1/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/v1/users/{id}", s.handleGetUser)

	return s.corsMiddleware(s.metricsMiddleware(mux))
}

// Start serves the API until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.APIPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.cfg.APIPort).Msg("API server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server error: %w", err)
	}

	return nil
}

// corsMiddleware handles the SPA origin: preflight requests are
// answered directly, other requests get the CORS headers attached.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && origin == s.cfg.CORSOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		observability.APIRequestDuration.
			WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	})
}

// routeLabel keeps metric cardinality bounded: only the first path
// segment under the API prefix is recorded.
func routeLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/")
	if trimmed == path {
		return "root"
	}

	if idx := strings.IndexByte(trimmed, '/'); idx > 0 {
		trimmed = trimmed[:idx]
	}

	return trimmed
}
