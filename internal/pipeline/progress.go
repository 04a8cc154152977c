package pipeline

import (
	"sync"
	"time"

	"github.com/JaimeStill/docket/pkg/parallel"
)

// Phases of a run.
const (
	PhaseEmbedding      = "embedding"
	PhaseClassification = "classification"
)

// Run states.
const (
	StateIdle     = "idle"
	StateRunning  = "running"
	StateComplete = "complete"
	StateFailed   = "failed"
)

// Snapshot is a point-in-time view of a run.
type Snapshot struct {
	State       string     `json:"state"`
	Phase       string     `json:"phase,omitempty"`
	Current     int        `json:"current"`
	Total       int        `json:"total"`
	Rate        float64    `json:"rate"`
	Workers     int        `json:"workers"`
	Duplicates  int        `json:"duplicates"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Progress tracks a single run. Updates come from the collecting
// goroutine; Snapshot may be called from anywhere. A nil *Progress
// ignores every update.
type Progress struct {
	mu       sync.RWMutex
	snap     Snapshot
	onUpdate func(Snapshot)
}

// NewProgress creates an idle tracker. onUpdate, when set, receives every
// snapshot on the goroutine that produced it.
func NewProgress(onUpdate func(Snapshot)) *Progress {
	return &Progress{
		snap:     Snapshot{State: StateIdle},
		onUpdate: onUpdate,
	}
}

// Snapshot returns the current state.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{State: StateIdle}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Running reports whether the tracked run has started and not finished.
func (p *Progress) Running() bool {
	return p.Snapshot().State == StateRunning
}

func (p *Progress) start() {
	now := time.Now().UTC()
	p.update(func(s *Snapshot) {
		*s = Snapshot{State: StateRunning, StartedAt: &now}
	})
}

func (p *Progress) phase(name string, total int) {
	p.update(func(s *Snapshot) {
		s.Phase = name
		s.Current = 0
		s.Total = total
		s.Rate = 0
	})
}

func (p *Progress) advance(pp parallel.Progress) {
	p.update(func(s *Snapshot) {
		s.Current = pp.Current
		s.Total = pp.Total
		s.Rate = pp.Rate
		s.Workers = pp.Workers
	})
}

func (p *Progress) duplicates(n int) {
	p.update(func(s *Snapshot) { s.Duplicates = n })
}

func (p *Progress) finish(err error) {
	now := time.Now().UTC()
	p.update(func(s *Snapshot) {
		s.CompletedAt = &now
		if err != nil {
			s.State = StateFailed
			s.Error = err.Error()
			return
		}
		s.State = StateComplete
	})
}

func (p *Progress) update(fn func(*Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	fn(&p.snap)
	snap := p.snap
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
}
