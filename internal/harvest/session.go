package harvest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionConfig controls one worker-pool session.
type SessionConfig struct {
	WorkerLimit      int
	MaxRetries       int
	RetryDelayFactor time.Duration
	ExtractTimeout   time.Duration
	JitterMin        time.Duration
	JitterMax        time.Duration
}

// PoolSize returns how many workers a session over n addresses spawns.
func (c SessionConfig) PoolSize(n int) int {
	if n < c.WorkerLimit {
		return n
	}
	return c.WorkerLimit
}

// RunSession harvests every address with extract over one browser context,
// returning one outcome per address (in arbitrary order). The browser
// context is acquired up front and released on every exit path; workers are
// canceled once the queue has drained.
func RunSession[T any](
	ctx context.Context,
	browsers NavigatorFactory,
	cfg SessionConfig,
	addresses []string,
	extract Extractor[T],
	progress *Progress,
	logger *zap.Logger,
) ([]Outcome[T], error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("starting browser")
	navigator, err := browsers.NewNavigator(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire browser context: %w", err)
	}
	defer func() {
		logger.Info("closing browser")
		if cerr := navigator.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("release browser context", zap.Error(cerr))
		}
	}()

	poolSize := cfg.PoolSize(len(addresses))
	queue := NewQueue(poolSize)
	sink := NewSink[T]()
	retry := NewRetryPolicy(cfg.MaxRetries, cfg.RetryDelayFactor, logger)
	loader := NewLoader[T](retry, cfg.ExtractTimeout, logger)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	for id := 1; id <= poolSize; id++ {
		w := &Worker[T]{
			id:        id,
			navigator: navigator,
			queue:     queue,
			sink:      sink,
			loader:    loader,
			extract:   extract,
			jitterMin: cfg.JitterMin,
			jitterMax: cfg.JitterMax,
			progress:  progress,
			logger:    logger,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(workerCtx)
		}()
	}

	for i, addr := range addresses {
		job := Job{Index: i + 1, Total: len(addresses), Address: addr}
		if err := queue.Enqueue(ctx, job); err != nil {
			cancelWorkers()
			wg.Wait()
			return sink.Snapshot(), err
		}
	}

	if err := queue.Join(ctx); err != nil {
		cancelWorkers()
		wg.Wait()
		return sink.Snapshot(), err
	}

	logger.Info("stopping workers", zap.Int("pool", poolSize))
	cancelWorkers()
	wg.Wait()

	return sink.Snapshot(), nil
}
