package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Mode selects the pipeline entry point for a background run.
type Mode int

const (
	ModeProcess Mode = iota
	ModeReprocess
)

func (m Mode) String() string {
	if m == ModeReprocess {
		return "reprocess"
	}
	return "process"
}

// Runner executes jobs on background goroutines, at most one per request,
// and keeps the latest progress of every request it has run.
type Runner struct {
	pipeline *Pipeline
	mu       sync.Mutex
	runs     map[uuid.UUID]*Progress
	wg       sync.WaitGroup
}

func NewRunner(p *Pipeline) *Runner {
	return &Runner{
		pipeline: p,
		runs:     make(map[uuid.UUID]*Progress),
	}
}

// Start launches job in the background under ctx, which should be a
// long-lived context such as the lifecycle context rather than a request
// context. done, when set, is called with the outcome on the run goroutine.
// Start returns ErrRunInProgress when the request already has a running job.
func (r *Runner) Start(
	ctx context.Context,
	mode Mode,
	job Job,
	done func(*Report, error),
) (*Progress, error) {
	if job.Source == nil && mode == ModeProcess {
		return nil, ErrNoSource
	}

	r.mu.Lock()
	if prev, ok := r.runs[job.RequestID]; ok && prev.Running() {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	progress := NewProgress(nil)
	progress.start()
	job.Progress = progress
	r.runs[job.RequestID] = progress
	r.mu.Unlock()

	r.wg.Go(func() {
		logger := r.pipeline.logger.With("request_id", job.RequestID, "mode", mode.String())

		var (
			report *Report
			err    error
		)
		if mode == ModeReprocess {
			report, err = r.pipeline.Reprocess(ctx, job)
		} else {
			report, err = r.pipeline.Run(ctx, job)
		}

		if err != nil {
			logger.Error("background run failed", "error", err)
		}
		if done != nil {
			done(report, err)
		}
	})

	return progress, nil
}

// Progress returns the latest snapshot for a request. Requests that have
// never run report StateIdle.
func (r *Runner) Progress(requestID uuid.UUID) Snapshot {
	r.mu.Lock()
	p := r.runs[requestID]
	r.mu.Unlock()
	return p.Snapshot()
}

// Running reports whether a job is active for the request.
func (r *Runner) Running(requestID uuid.UUID) bool {
	return r.Progress(requestID).State == StateRunning
}

// Forget drops the tracked progress of a request that is not running.
func (r *Runner) Forget(requestID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.runs[requestID]; ok && !p.Running() {
		delete(r.runs, requestID)
	}
}

// Wait blocks until every background run has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
