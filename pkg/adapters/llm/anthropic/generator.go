package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aescanero/pitchgraph/internal/ports"
	"go.uber.org/zap"
)

// Config holds Anthropic client settings
type Config struct {
	APIKey         string
	BaseURL        string
	MaxTokens      int
	Temperature    float64
	RequestTimeout time.Duration
}

// Generator implements ports.Generator with the Anthropic Messages API.
// Retries are left to the caller.
type Generator struct {
	client      anthropic.Client
	maxTokens   int64
	temperature float64
	metrics     ports.MetricsCollector
	logger      *zap.Logger
}

// NewGenerator creates a new Anthropic generator
func NewGenerator(cfg Config, metrics ports.MetricsCollector, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Generator{
		client:      anthropic.NewClient(opts...),
		maxTokens:   int64(maxTokens),
		temperature: cfg.Temperature,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// Generate sends prompt as a single user message and returns the text
// content of the reply.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		g.metrics.RecordLLMCall(model, "error", time.Since(start))
		g.logger.Warn("anthropic request failed",
			zap.String("model", model),
			zap.Error(err))
		return "", fmt.Errorf("failed to call anthropic: %w", err)
	}

	g.metrics.RecordLLMCall(model, "success", time.Since(start))
	g.metrics.RecordLLMTokens(model, "input", int(msg.Usage.InputTokens))
	g.metrics.RecordLLMTokens(model, "output", int(msg.Usage.OutputTokens))

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	g.logger.Debug("anthropic response",
		zap.String("model", model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.String("stop_reason", string(msg.StopReason)))

	return sb.String(), nil
}

// IsRetryable reports whether a Generate error is transient. API errors are
// retried on 408, 409, 429 and 5xx; transport errors always are. A deadline
// error is usually the per-request timeout, so it is retried; callers stop
// on their own context.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusConflict,
			apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	return true
}
