// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`

	APIPort    int    `env:"API_PORT" envDefault:"8000"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Search
	SearchDefaultLimit int           `env:"SEARCH_DEFAULT_LIMIT" envDefault:"20"`
	SearchMaxLimit     int           `env:"SEARCH_MAX_LIMIT" envDefault:"100"`
	SearchTimeout      time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`

	// Semantic Scholar provider
	SemanticScholarBaseURL string        `env:"SEMANTIC_SCHOLAR_BASE_URL" envDefault:"https://api.semanticscholar.org/graph/v1"`
	SemanticScholarAPIKey  string        `env:"SEMANTIC_SCHOLAR_API_KEY"`
	SemanticScholarRPM     int           `env:"SEMANTIC_SCHOLAR_RPM" envDefault:"60"`
	SemanticScholarTimeout time.Duration `env:"SEMANTIC_SCHOLAR_TIMEOUT" envDefault:"30s"`

	// arXiv provider
	ArxivBaseURL string        `env:"ARXIV_BASE_URL" envDefault:"http://export.arxiv.org/api/query"`
	ArxivRPM     int           `env:"ARXIV_RPM" envDefault:"20"`
	ArxivTimeout time.Duration `env:"ARXIV_TIMEOUT" envDefault:"30s"`

	// LLM analysis (Ollama via its OpenAI-compatible endpoint)
	LLMBaseURL          string        `env:"LLM_BASE_URL" envDefault:"http://localhost:11434/v1"`
	LLMAPIKey           string        `env:"LLM_API_KEY" envDefault:"ollama"`
	LLMModel            string        `env:"LLM_MODEL" envDefault:"llama3.2"`
	LLMTemperature      float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMTopP             float32       `env:"LLM_TOP_P" envDefault:"0.9"`
	LLMRateLimitRPS     int           `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	AnalysisMaxInFlight int           `env:"ANALYSIS_MAX_IN_FLIGHT" envDefault:"2"`
	AnalysisTimeout     time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"3m"`

	// Embeddings for similar-paper lookup
	EmbeddingsEnabled   bool   `env:"EMBEDDINGS_ENABLED" envDefault:"false"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"768"`

	// Abstract backfill from paper landing pages
	FullTextEnabled bool          `env:"FULLTEXT_ENABLED" envDefault:"true"`
	WebFetchTimeout time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"30s"`
	WebFetchRPS     float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	UserAgent       string        `env:"USER_AGENT" envDefault:"ai-research-hub/1.0"`

	StatsRefreshInterval time.Duration `env:"STATS_REFRESH_INTERVAL" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
