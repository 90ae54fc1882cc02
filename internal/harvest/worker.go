package harvest

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Worker is one long-lived pool member: it opens a page handle in the
// session's browser context, then loops dequeue, load, record until its
// context is canceled.
type Worker[T any] struct {
	id        int
	navigator Navigator
	queue     *Queue
	sink      *Sink[T]
	loader    *Loader[T]
	extract   Extractor[T]
	jitterMin time.Duration
	jitterMax time.Duration
	progress  *Progress
	logger    *zap.Logger
}

// Run blocks until the context ends. The page handle is released on exit.
func (w *Worker[T]) Run(ctx context.Context) {
	w.logger.Debug("worker starting", zap.Int("worker", w.id))

	page, err := w.navigator.NewPage(ctx)
	if err != nil {
		w.logger.Error("open page handle", zap.Int("worker", w.id), zap.Error(err))
		return
	}
	defer page.Close() //nolint:errcheck // handle teardown is best effort

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		w.process(ctx, page, job)
	}
}

func (w *Worker[T]) process(ctx context.Context, page Page, job Job) {
	defer w.queue.Done()

	w.logger.Info("harvesting",
		zap.Int("worker", w.id),
		zap.Int("index", job.Index),
		zap.Int("total", job.Total),
		zap.String("url", job.Address),
	)

	data, err := w.loader.Load(ctx, page, job.Address, w.extract)
	if ctx.Err() != nil && err != nil {
		// Canceled mid-load: abandon the job without recording an outcome.
		return
	}

	outcome := Outcome[T]{
		Address:   job.Address,
		Succeeded: err == nil,
		Data:      data,
	}
	w.sink.Append(outcome)
	w.progress.Record(outcome.Succeeded)
	if outcome.Succeeded {
		pagesHarvested.Inc()
	} else {
		pagesFailed.Inc()
		w.logger.Warn("harvest failed",
			zap.Int("worker", w.id),
			zap.String("url", job.Address),
			zap.Error(err),
		)
	}

	w.logger.Info("done processing",
		zap.Int("worker", w.id),
		zap.Int("index", job.Index),
		zap.Int("total", job.Total),
		zap.String("url", job.Address),
		zap.Bool("ok", outcome.Succeeded),
	)

	w.sleepJitter(ctx)
}

// sleepJitter pauses for a randomized politeness interval between jobs.
func (w *Worker[T]) sleepJitter(ctx context.Context) {
	if w.jitterMax <= 0 {
		return
	}
	delay := w.jitterMin
	if span := w.jitterMax - w.jitterMin; span > 0 {
		delay += rand.N(span + 1)
	}
	if delay <= 0 {
		return
	}
	w.logger.Debug("worker sleeping", zap.Int("worker", w.id), zap.Duration("delay", delay))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
