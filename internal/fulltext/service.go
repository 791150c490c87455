package fulltext

import (
	"context"
	"errors"
	"strings"
)

// ErrNoAbstract indicates the page yielded no abstract-like text.
var ErrNoAbstract = errors.New("no abstract found on page")

const defaultMaxContentLen = 5000

// Service fetches a landing page and extracts abstract text from it.
type Service struct {
	fetcher *Fetcher
	maxLen  int
}

func NewService(fetcher *Fetcher) *Service {
	return &Service{
		fetcher: fetcher,
		maxLen:  defaultMaxContentLen,
	}
}

// ExtractAbstract downloads the page and returns the best abstract
// candidate: a description meta tag, otherwise the readable body text.
func (s *Service) ExtractAbstract(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", ErrNoAbstract
	}

	body, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	abstract := strings.TrimSpace(ExtractPage(body, rawURL, s.maxLen).Abstract())
	if abstract == "" {
		return "", ErrNoAbstract
	}

	return abstract, nil
}
