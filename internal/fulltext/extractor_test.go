package fulltext

import (
	"strings"
	"testing"
)

const paperLandingPage = `<!DOCTYPE html>
<html>
<head>
<title>Attention Is All You Need - arXiv</title>
<meta name="citation_abstract" content="The dominant sequence transduction models are based on complex recurrent or convolutional neural networks.">
<meta name="citation_author" content="Ashish Vaswani">
<meta name="citation_publication_date" content="2017/06/12">
<meta property="og:title" content="Attention Is All You Need">
</head>
<body>
<article>
<h1>Attention Is All You Need</h1>
<p>The dominant sequence transduction models are based on complex recurrent or convolutional neural networks that include an encoder and a decoder. The best performing models also connect the encoder and decoder through an attention mechanism. We propose a new simple network architecture, the Transformer, based solely on attention mechanisms, dispensing with recurrence and convolutions entirely.</p>
<p>Experiments on two machine translation tasks show these models to be superior in quality while being more parallelizable and requiring significantly less time to train.</p>
</article>
</body>
</html>`

func TestExtractPage_MetaTags(t *testing.T) {
	page := ExtractPage([]byte(paperLandingPage), "https://arxiv.org/abs/1706.03762", 5000)

	if !strings.Contains(page.Description, "sequence transduction models") {
		t.Errorf("expected citation_abstract in description, got %q", page.Description)
	}

	if page.Author != "Ashish Vaswani" {
		t.Errorf("expected citation_author, got %q", page.Author)
	}

	if page.PublishedAt.Year() != 2017 {
		t.Errorf("expected published year 2017, got %d", page.PublishedAt.Year())
	}

	if page.Title == "" {
		t.Error("expected a title")
	}
}

func TestExtractPage_AbstractPrefersDescription(t *testing.T) {
	page := ExtractPage([]byte(paperLandingPage), "https://arxiv.org/abs/1706.03762", 5000)

	if !strings.Contains(page.Abstract(), "sequence transduction models") {
		t.Errorf("unexpected abstract: %q", page.Abstract())
	}
}

func TestExtractPage_NoMeta(t *testing.T) {
	page := ExtractPage([]byte("<html><head></head><body><p>hi</p></body></html>"), "https://example.com", 5000)

	if page.Description != "" {
		t.Errorf("expected empty description, got %q", page.Description)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("expected unmodified string, got %q", got)
	}

	if got := truncate("hello world", 5); got != "hello..." {
		t.Errorf("expected truncated string, got %q", got)
	}

	if got := truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}

func TestCoalesce(t *testing.T) {
	if got := coalesce("", "second", "third"); got != "second" {
		t.Errorf("expected second, got %q", got)
	}

	if got := coalesce("", ""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
