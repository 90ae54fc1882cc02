package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrRetriesExhausted reports that every permitted attempt failed. Callers
// can distinguish it from a successful-but-empty extraction.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy reruns a fallible operation with linearly increasing backoff:
// the wait after failed attempt k is k times the delay factor.
type RetryPolicy struct {
	maxAttempts int
	delayFactor time.Duration
	logger      *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy builds a policy. Attempt counts below one are clamped to one.
func NewRetryPolicy(maxAttempts int, delayFactor time.Duration, logger *zap.Logger) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		delayFactor: delayFactor,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Backoff returns the wait applied after failed attempt number attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt) * p.delayFactor
}

// MaxAttempts reports the attempt budget.
func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// Retry runs op until it succeeds or the policy is exhausted. Every failure
// cause is treated identically: log, back off, try again. The final error
// wraps ErrRetriesExhausted together with the last attempt's error.
func Retry[T any](ctx context.Context, p *RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		delay := p.Backoff(attempt)
		p.logger.Warn("attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.maxAttempts),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)
		retriesTotal.Inc()
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.maxAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
