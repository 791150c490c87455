package analysis

import (
	"context"
	"fmt"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

// mockClient implements Client for testing and local runs without Ollama.
type mockClient struct{}

// NewMockClient creates a mock analysis client.
func NewMockClient() Client {
	return &mockClient{}
}

func (c *mockClient) Model() string {
	return "mock"
}

func (c *mockClient) Health(_ context.Context) error {
	return nil
}

func (c *mockClient) AnalyzePaper(_ context.Context, paper domain.Paper) (domain.Analysis, error) {
	return domain.Analysis{
		Summary:      fmt.Sprintf("Mock analysis of %q.", paper.Title),
		KeyFindings:  []string{"mock finding"},
		Methodology:  "mock methodology",
		Applications: []string{"mock application"},
		FutureWork:   []string{"mock future work"},
	}, nil
}
