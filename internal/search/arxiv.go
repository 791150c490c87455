package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

const (
	arxivBaseURL        = "http://export.arxiv.org/api/query"
	arxivDefaultTimeout = 30 * time.Second
	arxivDefaultRPM     = 20
	arxivAbsPrefix      = "/abs/"
	arxivSourceIDPrefix = "arXiv:"
)

var errArxivUnexpectedStatus = errors.New("arxiv unexpected status")

// ArxivProvider implements Provider for the arXiv Atom API.
type ArxivProvider struct {
	baseURL     string
	httpClient  *http.Client
	feedParser  *gofeed.Parser
	rateLimiter *rate.Limiter
	enabled     bool
}

// ArxivConfig holds configuration for the arXiv provider.
type ArxivConfig struct {
	BaseURL        string
	RequestsPerMin int
	Timeout        time.Duration
}

// NewArxivProvider creates a new arXiv provider. The arXiv API is open,
// so the provider is always enabled.
func NewArxivProvider(cfg ArxivConfig) *ArxivProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = arxivBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = arxivDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = arxivDefaultRPM
	}

	return &ArxivProvider{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		feedParser:  gofeed.NewParser(),
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		enabled:     true,
	}
}

func (p *ArxivProvider) Name() ProviderName {
	return ProviderArxiv
}

func (p *ArxivProvider) IsAvailable() bool {
	return p.enabled
}

// Search queries the arXiv Atom API sorted by relevance.
func (p *ArxivProvider) Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("arxiv rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create arxiv request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read arxiv response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errArxivUnexpectedStatus, resp.StatusCode)
	}

	return p.parseFeed(body)
}

func (p *ArxivProvider) parseFeed(body []byte) ([]domain.Paper, error) {
	feed, err := p.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Items))

	for _, item := range feed.Items {
		if item.Title == "" {
			continue
		}

		authors := make([]string, 0, len(item.Authors))
		for _, a := range item.Authors {
			if a != nil && a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		entryURL := item.Link
		if entryURL == "" {
			entryURL = item.GUID
		}

		papers = append(papers, domain.Paper{
			SourceID: arxivSourceID(item.GUID),
			Title:    collapseWhitespace(item.Title),
			Abstract: strings.TrimSpace(item.Description),
			Authors:  authors,
			Year:     entryYear(item),
			Venue:    domain.SourceArxiv,
			URL:      entryURL,
			Source:   domain.SourceArxiv,
		})
	}

	return papers, nil
}

// arxivSourceID derives a stable "arXiv:<id>" identifier from an Atom
// entry ID like http://arxiv.org/abs/2106.15928v2. The version suffix
// is stripped so re-analyses of updated papers dedup to one row.
func arxivSourceID(entryID string) string {
	idx := strings.Index(entryID, arxivAbsPrefix)
	if idx < 0 {
		return ""
	}

	id := entryID[idx+len(arxivAbsPrefix):]
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 && isDigits(id[vIdx+1:]) {
		id = id[:vIdx]
	}

	if id == "" {
		return ""
	}

	return arxivSourceIDPrefix + id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func entryYear(item *gofeed.Item) int {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Year()
	}

	if item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			return t.Year()
		}
	}

	return 0
}

// collapseWhitespace flattens the newline-wrapped titles arXiv emits.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
