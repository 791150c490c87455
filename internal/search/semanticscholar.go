package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

const (
	semanticScholarBaseURL        = "https://api.semanticscholar.org/graph/v1"
	semanticScholarDefaultTimeout = 30 * time.Second
	semanticScholarDefaultRPM     = 60
	semanticScholarAuthHeader     = "x-api-key"
	semanticScholarPaperFields    = "paperId,title,abstract,authors,year,venue,url,citationCount"
	semanticScholarMaxPageSize    = 100
)

// Semantic Scholar errors.
var (
	ErrPaperNotFound                   = errors.New("paper not found")
	errSemanticScholarUnexpectedStatus = errors.New("semantic scholar unexpected status")
	errSemanticScholarRateLimited      = errors.New("semantic scholar rate limited")
)

// SemanticScholarProvider implements Provider for the Semantic Scholar
// Graph API v1. It also serves single-paper detail lookups.
type SemanticScholarProvider struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	enabled     bool
}

// SemanticScholarConfig holds configuration for the provider.
type SemanticScholarConfig struct {
	BaseURL        string
	APIKey         string
	RequestsPerMin int
	Timeout        time.Duration
}

// NewSemanticScholarProvider creates a new Semantic Scholar provider.
// The API works without a key at a lower rate limit, so the provider
// is enabled regardless of whether a key is configured.
func NewSemanticScholarProvider(cfg SemanticScholarConfig) *SemanticScholarProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = semanticScholarBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = semanticScholarDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = semanticScholarDefaultRPM
	}

	return &SemanticScholarProvider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		enabled:     true,
	}
}

func (p *SemanticScholarProvider) Name() ProviderName {
	return ProviderSemanticScholar
}

func (p *SemanticScholarProvider) IsAvailable() bool {
	return p.enabled
}

// Search performs a relevance search against the paper search endpoint.
// The API rejects limit values above 100, so larger result windows are
// collected by paging with offset.
func (p *SemanticScholarProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	papers := make([]domain.Paper, 0, maxResults)

	for offset := 0; offset < maxResults; {
		limit := maxResults - offset
		if limit > semanticScholarMaxPageSize {
			limit = semanticScholarMaxPageSize
		}

		page, err := p.searchPage(ctx, query, offset, limit)
		if err != nil {
			return nil, err
		}

		for _, entry := range page {
			papers = append(papers, entry.toPaper())
		}

		if len(page) < limit {
			break
		}

		offset += len(page)
	}

	return papers, nil
}

func (p *SemanticScholarProvider) searchPage(ctx context.Context, query string, offset, limit int) ([]semanticScholarPaper, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", semanticScholarPaperFields)

	body, err := p.get(ctx, p.baseURL+"/paper/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp semanticScholarSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse semantic scholar json: %w", err)
	}

	return resp.Data, nil
}

// PaperDetails fetches a single paper by its Semantic Scholar ID.
// Prefixed external identifiers like "arXiv:2106.15928" are accepted.
func (p *SemanticScholarProvider) PaperDetails(ctx context.Context, paperID string) (*domain.Paper, error) {
	params := url.Values{}
	params.Set("fields", semanticScholarPaperFields)

	body, err := p.get(ctx, p.baseURL+"/paper/"+url.PathEscape(paperID)+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var entry semanticScholarPaper
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("parse semantic scholar json: %w", err)
	}

	if entry.PaperID == "" {
		return nil, ErrPaperNotFound
	}

	paper := entry.toPaper()

	return &paper, nil
}

func (p *SemanticScholarProvider) get(ctx context.Context, requestURL string) ([]byte, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("semantic scholar rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create semantic scholar request: %w", err)
	}

	if p.apiKey != "" {
		req.Header.Set(semanticScholarAuthHeader, p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read semantic scholar response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrPaperNotFound
	case http.StatusTooManyRequests:
		return nil, errSemanticScholarRateLimited
	default:
		return nil, fmt.Errorf("%w: %d", errSemanticScholarUnexpectedStatus, resp.StatusCode)
	}
}

type semanticScholarSearchResponse struct {
	Total int                    `json:"total"`
	Data  []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	PaperID       string `json:"paperId"`       //nolint:tagliatelle // Semantic Scholar uses camelCase
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	Year          int    `json:"year"`
	Venue         string `json:"venue"`
	URL           string `json:"url"`
	CitationCount int    `json:"citationCount"` //nolint:tagliatelle // Semantic Scholar uses camelCase
	Authors       []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

func (p semanticScholarPaper) toPaper() domain.Paper {
	authors := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	return domain.Paper{
		SourceID:  p.PaperID,
		Title:     p.Title,
		Abstract:  p.Abstract,
		Authors:   authors,
		Year:      p.Year,
		Venue:     p.Venue,
		URL:       p.URL,
		Citations: p.CitationCount,
		Source:    domain.SourceSemanticScholar,
	}
}
