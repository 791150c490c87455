package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/airesearchhub/research-hub/internal/core/domain"
	"github.com/airesearchhub/research-hub/internal/platform/observability"
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// ErrEmptyResponse indicates the model returned no content.
var ErrEmptyResponse = errors.New("empty response from model")

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute
	rateLimiterBurst        = 5
	healthProbeMaxTokens    = 1

	errRateLimiter = "rate limiter: %w"
)

// OllamaConfig holds configuration for the Ollama client.
type OllamaConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float32
	TopP         float32
	RateLimitRPS int
	MaxInFlight  int
}

type ollamaClient struct {
	cfg         OllamaConfig
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	semaphore   chan struct{}

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOllama creates a client for an Ollama server exposing the
// OpenAI-compatible /v1 endpoint. MaxInFlight bounds concurrent
// generations; extra requests wait until a slot frees or the request
// context expires.
func NewOllama(cfg OllamaConfig, logger *zerolog.Logger) Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 2
	}

	return &ollamaClient{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientConfig),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst),
		semaphore:   make(chan struct{}, maxInFlight),
	}
}

func (c *ollamaClient) Model() string {
	return c.cfg.Model
}

func (c *ollamaClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *ollamaClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *ollamaClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

func (c *ollamaClient) acquire(ctx context.Context) error {
	select {
	case c.semaphore <- struct{}{}:
		observability.AnalysisInFlight.Inc()

		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for analysis slot: %w", ctx.Err())
	}
}

func (c *ollamaClient) release() {
	<-c.semaphore
	observability.AnalysisInFlight.Dec()
}

func (c *ollamaClient) AnalyzePaper(ctx context.Context, paper domain.Paper) (domain.Analysis, error) {
	if err := c.checkCircuit(); err != nil {
		return domain.Analysis{}, err
	}

	if err := c.acquire(ctx); err != nil {
		return domain.Analysis{}, err
	}
	defer c.release()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.Analysis{}, fmt.Errorf(errRateLimiter, err)
	}

	start := time.Now()

	content, err := c.complete(ctx, buildAnalysisPrompt(paper))

	observability.AnalysisDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()

		return domain.Analysis{}, err
	}

	c.recordSuccess()

	c.logger.Info().
		Str("model", c.cfg.Model).
		Str("title", paper.Title).
		Dur("duration", time.Since(start)).
		Msg("paper analyzed")

	return ParseAnalysis(content), nil
}

func (c *ollamaClient) Health(ctx context.Context) error {
	if err := c.checkCircuit(); err != nil {
		return err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: healthProbeMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	})
	if err != nil {
		c.recordFailure()

		return fmt.Errorf("ollama health probe: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		return ErrEmptyResponse
	}

	return nil
}

func (c *ollamaClient) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
