package embeddings

import "context"

// mockClient returns deterministic vectors for tests.
type mockClient struct {
	dimensions int
}

// NewMock creates a mock embedding client with the given dimensions.
func NewMock(dimensions int) Client {
	return &mockClient{dimensions: dimensions}
}

func (c *mockClient) Dimensions() int {
	return c.dimensions
}

func (c *mockClient) GetEmbedding(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, c.dimensions)

	for i, r := range text {
		vector[i%c.dimensions] += float32(r%13) / 13
	}

	return vector, nil
}
