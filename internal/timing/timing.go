package timing

import (
	"sync"
	"time"
)

// Stage is one named phase of a tracked operation.
type Stage struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
}

// Tracker measures the phases of a multi-stage operation, e.g. a crawl
// run (fetch root, crawl subpages, ingest). Safe for concurrent Mark
// calls.
type Tracker struct {
	mu     sync.Mutex
	start  time.Time
	last   time.Time
	stages []Stage
}

// NewTracker starts a tracker at the current time.
func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{start: now, last: now}
}

// Mark closes the current phase under the given name. The next phase
// starts immediately.
func (t *Tracker) Mark(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.stages = append(t.stages, Stage{
		Name:       name,
		DurationMs: now.Sub(t.last).Milliseconds(),
	})
	t.last = now
}

// Elapsed is the total time since the tracker started.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.start)
}

// Stages returns a copy of the closed phases in order.
func (t *Tracker) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Stage, len(t.stages))
	copy(out, t.stages)
	return out
}
