package fulltext

import (
	"bytes"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// PageContent is the extracted content of a paper landing page.
type PageContent struct {
	Title       string
	Description string
	Content     string
	Author      string
	PublishedAt time.Time
	WordCount   int
}

// ExtractPage extracts readable content from a landing page using
// readability (Firefox Reader Mode algorithm), falling back to meta
// tags when the page has no extractable article body.
func ExtractPage(htmlBytes []byte, rawURL string, maxLen int) *PageContent {
	u, _ := url.Parse(rawURL) //nolint:errcheck // URL already validated by the fetcher

	meta := extractMetaTags(htmlBytes)

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), u)
	if err != nil {
		return &PageContent{
			Title:       coalesce(meta.OGTitle, meta.Title),
			Description: coalesce(meta.OGDescription, meta.Description),
			Author:      meta.Author,
			PublishedAt: parseDate(meta.PublishedTime),
		}
	}

	return &PageContent{
		Title:       coalesce(article.Title, meta.OGTitle, meta.Title),
		Description: coalesce(meta.OGDescription, meta.Description),
		Content:     truncate(article.TextContent, maxLen),
		Author:      coalesce(article.Byline, meta.Author),
		PublishedAt: parseDate(meta.PublishedTime),
		WordCount:   len(strings.Fields(article.TextContent)),
	}
}

// Abstract returns the best available abstract-like text from the page.
func (p *PageContent) Abstract() string {
	if p.Description != "" {
		return p.Description
	}

	return strings.TrimSpace(p.Content)
}

type metaTags struct {
	Title         string
	Description   string
	OGTitle       string
	OGDescription string
	Author        string
	PublishedTime string
}

func extractMetaTags(htmlBytes []byte) metaTags {
	var meta metaTags

	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return meta
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getMetaAttrs(n)
				switch strings.ToLower(name) {
				case "description", "citation_abstract":
					meta.Description = content
				case "author", "citation_author":
					meta.Author = content
				case "og:title":
					meta.OGTitle = content
				case "og:description":
					meta.OGDescription = content
				case "article:published_time", "citation_publication_date":
					meta.PublishedTime = content
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return meta
}

func getMetaAttrs(n *html.Node) (string, string) {
	var name, content string

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name", "property":
			name = attr.Val
		case "content":
			content = attr.Val
		}
	}

	return name, content
}

func coalesce(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}

	return ""
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	runes := []rune(s)

	return string(runes[:maxLen]) + "..."
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t
}
