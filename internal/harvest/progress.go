package harvest

import "sync"

// Stage identifies which phase of the pipeline is running.
type Stage string

// Pipeline stages.
const (
	StageIdle    Stage = "idle"
	StageListing Stage = "listing"
	StageItems   Stage = "items"
	StageDone    Stage = "done"
)

// Status is a point-in-time snapshot of a run, served by the status endpoint.
type Status struct {
	Stage     Stage `json:"stage"`
	Total     int   `json:"total"`
	Processed int   `json:"processed"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
}

// Progress tracks run counters across workers. Safe for concurrent use; a
// nil *Progress is a no-op so tests can omit it.
type Progress struct {
	mu        sync.Mutex
	stage     Stage
	total     int
	processed int
	succeeded int
	failed    int
}

// NewProgress returns an idle tracker.
func NewProgress() *Progress {
	return &Progress{stage: StageIdle}
}

// StartStage resets the per-stage counters for a new session batch.
func (p *Progress) StartStage(stage Stage, total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = stage
	p.total = total
	p.processed = 0
	p.succeeded = 0
	p.failed = 0
}

// Record counts one completed job.
func (p *Progress) Record(succeeded bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	if succeeded {
		p.succeeded++
	} else {
		p.failed++
	}
}

// Finish marks the run complete.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = StageDone
}

// Snapshot returns the current status.
func (p *Progress) Snapshot() Status {
	if p == nil {
		return Status{Stage: StageIdle}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Stage:     p.stage,
		Total:     p.total,
		Processed: p.processed,
		Succeeded: p.succeeded,
		Failed:    p.failed,
	}
}
