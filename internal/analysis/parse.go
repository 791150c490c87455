package analysis

import (
	"strings"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionKeyFindings
	sectionMethodology
	sectionApplications
	sectionFutureWork
)

// ParseAnalysis splits a sectioned model response into the structured
// analysis. Section headers are matched loosely by keyword so the
// parser survives numbering and markdown decoration; content lines are
// accumulated into the current section, with bullet markers stripped
// for the list sections.
func ParseAnalysis(response string) domain.Analysis {
	var analysis domain.Analysis

	current := sectionNone

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if s, ok := matchSectionHeader(line); ok {
			current = s
			continue
		}

		appendToSection(&analysis, current, stripBullet(line))
	}

	return analysis
}

func matchSectionHeader(line string) (section, bool) {
	if !strings.Contains(line, ":") {
		return sectionNone, false
	}

	lower := strings.ToLower(line)

	switch {
	case strings.Contains(lower, "summary"):
		return sectionSummary, true
	case strings.Contains(lower, "key findings"):
		return sectionKeyFindings, true
	case strings.Contains(lower, "methodology"):
		return sectionMethodology, true
	case strings.Contains(lower, "applications"):
		return sectionApplications, true
	case strings.Contains(lower, "future") && strings.Contains(lower, "research"):
		return sectionFutureWork, true
	default:
		return sectionNone, false
	}
}

func appendToSection(analysis *domain.Analysis, current section, line string) {
	switch current {
	case sectionSummary:
		analysis.Summary = joinSentence(analysis.Summary, line)
	case sectionKeyFindings:
		analysis.KeyFindings = append(analysis.KeyFindings, line)
	case sectionMethodology:
		analysis.Methodology = joinSentence(analysis.Methodology, line)
	case sectionApplications:
		analysis.Applications = append(analysis.Applications, line)
	case sectionFutureWork:
		analysis.FutureWork = append(analysis.FutureWork, line)
	case sectionNone:
	}
}

func joinSentence(existing, line string) string {
	if existing == "" {
		return line
	}

	return existing + " " + line
}

func stripBullet(line string) string {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}

	return line
}
