package llm

import (
	"context"
	"time"

	"github.com/aescanero/pitchgraph/internal/ports"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds retries of a generator call. MaxAttempts counts the
// first call, so 5 means one call and up to four retries.
type RetryPolicy struct {
	MaxAttempts int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// RetryingGenerator retries failed generator calls with exponential backoff.
type RetryingGenerator struct {
	next      ports.Generator
	policy    RetryPolicy
	retryable func(error) bool
	metrics   ports.MetricsCollector
	logger    *zap.Logger
}

// NewRetryingGenerator wraps next. retryable decides which errors are
// retried; nil retries every error.
func NewRetryingGenerator(
	next ports.Generator,
	policy RetryPolicy,
	retryable func(error) bool,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *RetryingGenerator {
	if retryable == nil {
		retryable = func(error) bool { return true }
	}
	return &RetryingGenerator{
		next:      next,
		policy:    policy,
		retryable: retryable,
		metrics:   metrics,
		logger:    logger,
	}
}

func (r *RetryingGenerator) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.MinWait
	b.MaxInterval = r.policy.MaxWait
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, retriesFor(r.policy.MaxAttempts)), ctx)
}

// retriesFor converts a total attempt budget into backoff retries.
func retriesFor(attempts int) uint64 {
	if attempts <= 1 {
		return 0
	}
	return uint64(attempts - 1)
}

// Generate implements ports.Generator.
func (r *RetryingGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	var out string
	operation := func() error {
		text, err := r.next.Generate(ctx, model, prompt)
		if err != nil {
			if ctx.Err() != nil || !r.retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = text
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.metrics.RecordLLMRetry(model)
		r.logger.Warn("retrying generator call",
			zap.String("model", model),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, r.newBackOff(ctx), notify); err != nil {
		return "", err
	}
	return out, nil
}
