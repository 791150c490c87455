package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/airesearchhub/research-hub/internal/analysis"
	"github.com/airesearchhub/research-hub/internal/core/domain"
	"github.com/airesearchhub/research-hub/internal/platform/observability"
	"github.com/airesearchhub/research-hub/internal/platform/worker"
	"github.com/airesearchhub/research-hub/internal/search"
	db "github.com/airesearchhub/research-hub/internal/storage"
)

const (
	defaultRecentLimit  = 10
	defaultSimilarLimit = 5
	maxSimilarLimit     = 50

	// Error message constants.
	errMsgQueryRequired  = "query parameter is required"
	errMsgPaperNotFound  = "paper not found"
	errMsgSearchFailed   = "search failed"
	errMsgAnalyzeFailed  = "analysis failed"
	errMsgStorageFailed  = "storage error"
	errMsgLLMUnavailable = "analysis model unavailable"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to AI Research Hub API",
		"version": apiVersion,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": apiVersion,
	})
}

func (s *Server) handleOllamaHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.analyzer.Health(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("ollama health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"model":  s.analyzer.Model(),
			"error":  err.Error(),
		})

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  s.analyzer.Model(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, errMsgQueryRequired)

		return
	}

	req := search.Request{
		Query:   query,
		Page:    parsePositiveInt(r.URL.Query().Get("page"), 1),
		Limit:   s.searchLimit(r.URL.Query().Get("limit")),
		Sources: parseSources(r.URL.Query().Get("sources")),
	}

	resp, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		writeError(w, http.StatusBadGateway, errMsgSearchFailed)

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchLimit(raw string) int {
	limit := parsePositiveInt(raw, s.cfg.SearchDefaultLimit)
	if limit > s.cfg.SearchMaxLimit {
		limit = s.cfg.SearchMaxLimit
	}

	return limit
}

func parseSources(raw string) []search.ProviderName {
	if raw == "" {
		return nil
	}

	return search.ParseSources(strings.Split(raw, ","))
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}

	return n
}

func (s *Server) handlePaper(w http.ResponseWriter, r *http.Request) {
	paperID := r.PathValue("id")

	paper, err := s.papers.PaperDetails(r.Context(), paperID)
	if err != nil {
		if errors.Is(err, search.ErrPaperNotFound) {
			writeError(w, http.StatusNotFound, errMsgPaperNotFound)

			return
		}

		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("paper details failed")
		writeError(w, http.StatusBadGateway, errMsgSearchFailed)

		return
	}

	writeJSON(w, http.StatusOK, paper)
}

// handleAnalyze returns the stored analysis for an already analyzed
// paper; otherwise it resolves the paper, backfills a missing abstract
// from its landing page, runs the LLM analysis and stores the result.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	paperID := r.PathValue("id")
	ctx := r.Context()

	existing, err := s.repo.GetAnalysisBySourceID(ctx, paperID)
	if err == nil {
		observability.AnalysisRequests.WithLabelValues("cached").Inc()
		writeJSON(w, http.StatusOK, existing)

		return
	}

	if !errors.Is(err, db.ErrNotFound) {
		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("analysis lookup failed")
		writeError(w, http.StatusInternalServerError, errMsgStorageFailed)

		return
	}

	paper, err := s.papers.PaperDetails(ctx, paperID)
	if err != nil {
		if errors.Is(err, search.ErrPaperNotFound) {
			writeError(w, http.StatusNotFound, errMsgPaperNotFound)

			return
		}

		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("paper details failed")
		writeError(w, http.StatusBadGateway, errMsgSearchFailed)

		return
	}

	// The requested identifier is the dedup key, regardless of what
	// canonical ID the source reports back.
	paper.SourceID = paperID

	s.backfillAbstract(ctx, paper)

	var result domain.Analysis

	err = worker.RunWithTimeout(ctx, s.cfg.AnalysisTimeout, func(ctx context.Context) error {
		var analyzeErr error
		result, analyzeErr = s.analyzer.AnalyzePaper(ctx, *paper)

		return analyzeErr
	})
	if err != nil {
		observability.AnalysisRequests.WithLabelValues("error").Inc()

		if errors.Is(err, analysis.ErrCircuitBreakerOpen) {
			writeError(w, http.StatusServiceUnavailable, errMsgLLMUnavailable)

			return
		}

		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("analysis failed")
		writeError(w, http.StatusBadGateway, errMsgAnalyzeFailed)

		return
	}

	stored, err := s.repo.StoreAnalysis(ctx, *paper, result)
	if err != nil {
		observability.AnalysisRequests.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("storing analysis failed")
		writeError(w, http.StatusInternalServerError, errMsgStorageFailed)

		return
	}

	s.embedStored(ctx, stored)

	observability.AnalysisRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) backfillAbstract(ctx context.Context, paper *domain.Paper) {
	if paper.Abstract != "" || s.pages == nil {
		return
	}

	abstract, err := s.pages.ExtractAbstract(ctx, paper.URL)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", paper.URL).Msg("abstract backfill failed")

		return
	}

	paper.Abstract = abstract
}

// embedStored computes and stores the paper embedding. Failures are
// logged only; the analysis response does not depend on it.
func (s *Server) embedStored(ctx context.Context, stored *domain.AnalyzedPaper) {
	if s.embedder == nil {
		return
	}

	vector, err := s.embedder.GetEmbedding(ctx, embeddingText(stored))
	if err != nil {
		s.logger.Warn().Err(err).Str("source_id", stored.Paper.SourceID).Msg("embedding failed")

		return
	}

	if err := s.repo.SetPaperEmbedding(ctx, stored.Paper.SourceID, vector); err != nil {
		s.logger.Warn().Err(err).Str("source_id", stored.Paper.SourceID).Msg("storing embedding failed")
	}
}

func embeddingText(stored *domain.AnalyzedPaper) string {
	parts := []string{stored.Paper.Title}

	if stored.Paper.Abstract != "" {
		parts = append(parts, stored.Paper.Abstract)
	} else if stored.Analysis.Summary != "" {
		parts = append(parts, stored.Analysis.Summary)
	}

	return strings.Join(parts, "\n\n")
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	paperID := r.PathValue("id")

	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultSimilarLimit)
	if limit > maxSimilarLimit {
		limit = maxSimilarLimit
	}

	papers, err := s.repo.SimilarPapers(r.Context(), paperID, limit)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no stored embedding for paper")

			return
		}

		s.logger.Error().Err(err).Str("paper_id", paperID).Msg("similar papers failed")
		writeError(w, http.StatusInternalServerError, errMsgStorageFailed)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": papers})
}

func (s *Server) handleRecentAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := parsePositiveInt(r.URL.Query().Get("limit"), defaultRecentLimit)

	papers, err := s.repo.RecentAnalyses(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("recent analyses failed")
		writeError(w, http.StatusInternalServerError, errMsgStorageFailed)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": papers})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.PaperStats(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("paper stats failed")
		writeError(w, http.StatusInternalServerError, errMsgStorageFailed)

		return
	}

	writeJSON(w, http.StatusOK, stats)
}
