package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airesearchhub/research-hub/internal/core/domain"
	"github.com/airesearchhub/research-hub/internal/platform/observability"
)

// Request is a paper search request.
type Request struct {
	Query   string
	Page    int
	Limit   int
	Sources []ProviderName
}

// Response carries the merged result window plus search metadata.
type Response struct {
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	TookMS  int64          `json:"took_ms"`
	Results []domain.Paper `json:"results"`
}

// Service fans a query out to the selected providers, merges and
// windows the results.
type Service struct {
	registry *ProviderRegistry
	logger   *zerolog.Logger
}

func NewService(registry *ProviderRegistry, logger *zerolog.Logger) *Service {
	return &Service{
		registry: registry,
		logger:   logger,
	}
}

// Registry exposes the provider registry for availability checks.
func (s *Service) Registry() *ProviderRegistry {
	return s.registry
}

// Search queries the selected providers concurrently. Individual
// provider failures degrade the result set instead of failing the
// search; the request errors only when no provider is usable.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.Page < 1 {
		req.Page = 1
	}

	providers := s.registry.Select(req.Sources)
	if len(providers) == 0 {
		return nil, errNoProvidersAvailable
	}

	// Each provider is asked for enough results to fill the requested
	// window even when merging drops cross-source duplicates.
	perProvider := req.Page * req.Limit

	sets := s.fanOut(ctx, providers, req.Query, perProvider)

	merged := Merge(sets...)

	resp := &Response{
		Query:   req.Query,
		Total:   len(merged),
		TookMS:  time.Since(start).Milliseconds(),
		Results: window(merged, req.Page, req.Limit),
	}

	s.logger.Info().
		Str("query", req.Query).
		Int("providers", len(providers)).
		Int("total", resp.Total).
		Int64("took_ms", resp.TookMS).
		Msg("search completed")

	return resp, nil
}

// fanOut queries providers in parallel and returns their result sets
// ordered by provider registration order, so the merge priority is
// stable regardless of which provider answers first.
func (s *Service) fanOut(ctx context.Context, providers []Provider, query string, maxResults int) [][]domain.Paper {
	type indexedSet struct {
		index  int
		papers []domain.Paper
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sets []indexedSet
	)

	for i, provider := range providers {
		wg.Add(1)

		go func(index int, p Provider) {
			defer wg.Done()

			providerStart := time.Now()

			papers, err := p.Search(ctx, query, maxResults)

			observability.SearchProviderDuration.
				WithLabelValues(string(p.Name())).
				Observe(time.Since(providerStart).Seconds())

			cb := s.registry.getCircuitBreaker(p.Name())

			if err != nil {
				cb.recordFailure()
				observability.SearchProviderRequests.WithLabelValues(string(p.Name()), "error").Inc()
				s.logger.Warn().Err(err).Str("provider", string(p.Name())).Msg("provider search failed")

				return
			}

			cb.recordSuccess()
			observability.SearchProviderRequests.WithLabelValues(string(p.Name()), "ok").Inc()

			mu.Lock()
			sets = append(sets, indexedSet{index: index, papers: papers})
			mu.Unlock()
		}(i, provider)
	}

	wg.Wait()

	sort.Slice(sets, func(i, j int) bool { return sets[i].index < sets[j].index })

	ordered := make([][]domain.Paper, 0, len(sets))
	for _, set := range sets {
		ordered = append(ordered, set.papers)
	}

	return ordered
}

func window(papers []domain.Paper, page, limit int) []domain.Paper {
	offset := (page - 1) * limit
	if offset >= len(papers) {
		return []domain.Paper{}
	}

	end := offset + limit
	if end > len(papers) {
		end = len(papers)
	}

	return papers[offset:end]
}

// ParseSources maps the comma-separated sources query parameter to
// provider names, dropping unknown entries.
func ParseSources(raw []string) []ProviderName {
	names := []ProviderName{}

	for _, s := range raw {
		switch ProviderName(s) {
		case ProviderSemanticScholar, ProviderArxiv:
			names = append(names, ProviderName(s))
		}
	}

	return names
}
