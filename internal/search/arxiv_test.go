package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const arxivTestFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=all:attention</title>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <updated>2023-08-02T00:41:18Z</updated>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All You
  Need</title>
    <summary>  The dominant sequence transduction models are based on complex recurrent or
convolutional neural networks.</summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func newTestArxivProvider(baseURL string) *ArxivProvider {
	return NewArxivProvider(ArxivConfig{
		BaseURL:        baseURL,
		RequestsPerMin: 6000,
		Timeout:        5 * time.Second,
	})
}

func TestArxivProvider_Search_Success(t *testing.T) {
	var capturedQuery string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query().Get("search_query")

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte(arxivTestFeed)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer ts.Close()

	p := newTestArxivProvider(ts.URL)

	papers, err := p.Search(context.Background(), "attention", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if capturedQuery != "all:attention" {
		t.Errorf("expected search_query all:attention, got %q", capturedQuery)
	}

	if len(papers) != 1 {
		t.Fatalf("expected 1 result, got %d", len(papers))
	}

	paper := papers[0]

	if paper.SourceID != "arXiv:1706.03762" {
		t.Errorf("expected source ID arXiv:1706.03762, got %q", paper.SourceID)
	}

	if paper.Title != "Attention Is All You Need" {
		t.Errorf("expected collapsed title, got %q", paper.Title)
	}

	if paper.Year != 2017 {
		t.Errorf("expected year 2017, got %d", paper.Year)
	}

	if len(paper.Authors) != 2 || paper.Authors[0] != "Ashish Vaswani" {
		t.Errorf("unexpected authors: %v", paper.Authors)
	}
}

func TestArxivProvider_Search_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := newTestArxivProvider(ts.URL)

	if _, err := p.Search(context.Background(), "attention", 10); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestArxivSourceID(t *testing.T) {
	tests := []struct {
		name     string
		entryID  string
		expected string
	}{
		{"versioned", "http://arxiv.org/abs/2106.15928v2", "arXiv:2106.15928"},
		{"unversioned", "http://arxiv.org/abs/2106.15928", "arXiv:2106.15928"},
		{"old style with category", "http://arxiv.org/abs/cs/9901002v1", "arXiv:cs/9901002"},
		{"not an abs URL", "http://example.com/paper/1", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := arxivSourceID(tt.entryID); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
