// Package embeddings generates text embeddings for similar-paper lookup
// through an OpenAI-compatible endpoint (Ollama in the default setup).
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/airesearchhub/research-hub/internal/platform/observability"
)

// ErrEmptyResponse indicates an empty embedding response.
var ErrEmptyResponse = errors.New("empty embedding response")

const rateLimiterBurst = 5

// Client generates embedding vectors for text.
type Client interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Config holds configuration for the embedding client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	RateLimit  int // requests per second
}

type openaiClient struct {
	client      *openai.Client
	model       string
	dimensions  int
	rateLimiter *rate.Limiter
}

// New creates an embedding client against an OpenAI-compatible endpoint.
func New(cfg Config) Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}

	return &openaiClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		dimensions:  cfg.Dimensions,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
	}
}

func (c *openaiClient) Dimensions() int {
	return c.dimensions
}

func (c *openaiClient) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		observability.EmbeddingRequests.WithLabelValues("error").Inc()

		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) == 0 {
		observability.EmbeddingRequests.WithLabelValues("error").Inc()

		return nil, ErrEmptyResponse
	}

	observability.EmbeddingRequests.WithLabelValues("ok").Inc()

	return resp.Data[0].Embedding, nil
}
