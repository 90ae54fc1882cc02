package harvest

import "sync"

// Sink is the append-only collection of outcomes shared by the workers of
// one session. Appends are serialized by a mutex so the exactly-once-append
// invariant holds under true parallelism.
type Sink[T any] struct {
	mu       sync.Mutex
	outcomes []Outcome[T]
}

// NewSink constructs an empty sink.
func NewSink[T any]() *Sink[T] {
	return &Sink[T]{}
}

// Append records one outcome.
func (s *Sink[T]) Append(o Outcome[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

// Len reports how many outcomes have been recorded.
func (s *Sink[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// Snapshot returns a copy of the recorded outcomes. Order is the arrival
// order of appends, which is nondeterministic across workers.
func (s *Sink[T]) Snapshot() []Outcome[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Outcome[T], len(s.outcomes))
	copy(out, s.outcomes)
	return out
}
