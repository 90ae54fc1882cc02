package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Loader navigates a page handle to an address and runs the extractor under
// a fixed timeout, with the whole navigate-and-extract step wrapped by the
// retry policy. Navigation errors, extraction errors, and timeouts are
// indistinguishable to the caller.
type Loader[T any] struct {
	retry          *RetryPolicy
	extractTimeout time.Duration
	logger         *zap.Logger
}

// NewLoader builds a loader around the given retry policy.
func NewLoader[T any](retry *RetryPolicy, extractTimeout time.Duration, logger *zap.Logger) *Loader[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader[T]{
		retry:          retry,
		extractTimeout: extractTimeout,
		logger:         logger,
	}
}

// Load returns the extracted data, or an error once the retry budget is
// spent. The extract timeout bounds each attempt's extraction individually;
// total time per job can still exceed it by the sum of backoff waits.
func (l *Loader[T]) Load(ctx context.Context, page Page, address string, extract Extractor[T]) (T, error) {
	return Retry(ctx, l.retry, func(ctx context.Context) (T, error) {
		var zero T

		l.logger.Debug("opening page", zap.String("url", address))
		if err := page.Navigate(ctx, address); err != nil {
			return zero, fmt.Errorf("navigate %s: %w", address, err)
		}

		extractCtx, cancel := context.WithTimeout(ctx, l.extractTimeout)
		defer cancel()

		l.logger.Debug("parsing page", zap.String("url", address))
		out, err := extract(extractCtx, page)
		if err != nil {
			return zero, fmt.Errorf("extract %s: %w", address, err)
		}
		return out, nil
	})
}
