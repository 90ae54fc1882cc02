package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrQueueClosed is returned by Dequeue once the queue is closed and drained.
var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded job queue with context-aware operations and drain
// accounting: every enqueued Job must be acknowledged with Done before Join
// returns. A full queue blocks the producer, which is the backpressure that
// keeps in-flight work at pool size.
type Queue struct {
	ch      chan Job
	pending sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan Job, capacity),
	}
}

// Enqueue pushes a job, blocking while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.pending.Add(1)
	select {
	case <-ctx.Done():
		q.pending.Done()
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- job:
		return nil
	}
}

// Dequeue pops the next job, blocking while the queue is empty.
func (q *Queue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case <-ctx.Done():
		return Job{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case job, ok := <-q.ch:
		if !ok {
			return Job{}, ErrQueueClosed
		}
		return job, nil
	}
}

// Done acknowledges one dequeued job as fully processed.
func (q *Queue) Done() {
	q.pending.Done()
}

// Join blocks until every enqueued job has been acknowledged, or ctx ends.
func (q *Queue) Join(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		q.pending.Wait()
		close(drained)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("join canceled: %w", ctx.Err())
	case <-drained:
		return nil
	}
}

// Close closes the underlying channel for shutdown. Safe to call twice.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
