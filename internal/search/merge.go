package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

var titleFolder = cases.Fold()

// NormalizeTitle produces the dedup key for a paper title: NFKC
// normalized, case folded, whitespace collapsed.
func NormalizeTitle(title string) string {
	folded := titleFolder.String(norm.NFKC.String(title))

	return strings.Join(strings.Fields(folded), " ")
}

// Merge deduplicates result sets by normalized title. Sets are applied
// in order, so earlier sources win ties; callers pass Semantic Scholar
// first because its metadata is richer.
func Merge(sets ...[]domain.Paper) []domain.Paper {
	seen := make(map[string]bool)
	merged := []domain.Paper{}

	for _, set := range sets {
		for _, paper := range set {
			key := NormalizeTitle(paper.Title)
			if key == "" || seen[key] {
				continue
			}

			seen[key] = true
			merged = append(merged, paper)
		}
	}

	return merged
}
