// Package analysis runs LLM paper analyses against an Ollama instance
// through its OpenAI-compatible API.
package analysis

import (
	"context"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

// Client analyzes papers with an LLM.
type Client interface {
	// AnalyzePaper produces a structured analysis of the paper.
	AnalyzePaper(ctx context.Context, paper domain.Paper) (domain.Analysis, error)
	// Health probes the model with a minimal generation.
	Health(ctx context.Context) error
	// Model returns the configured model name.
	Model() string
}
