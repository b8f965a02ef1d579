package llm

import (
	"fmt"
	"time"

	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/aescanero/pitchgraph/pkg/adapters/llm/anthropic"
	"go.uber.org/zap"
)

// Config holds LLM client configuration
type Config struct {
	Provider       string
	APIKey         string
	BaseURL        string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
	Retry          RetryPolicy
	Metrics        ports.MetricsCollector
	Logger         *zap.Logger
}

// NewGenerator creates the provider's generator wrapped in the retry policy.
func NewGenerator(cfg *Config) (ports.Generator, error) {
	switch cfg.Provider {
	case "anthropic":
		gen, err := anthropic.NewGenerator(anthropic.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
			RequestTimeout: cfg.RequestTimeout,
		}, cfg.Metrics, cfg.Logger)
		if err != nil {
			return nil, err
		}
		return NewRetryingGenerator(gen, cfg.Retry, anthropic.IsRetryable, cfg.Metrics, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
