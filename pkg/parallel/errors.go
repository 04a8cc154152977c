package parallel

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTasks is returned by Run when there is nothing to process.
	ErrNoTasks = errors.New("no tasks to process")
	// ErrSetup indicates a worker processor could not be constructed.
	ErrSetup = errors.New("worker setup failed")
	// ErrWorkerDied reports a worker goroutine that terminated abnormally.
	ErrWorkerDied = errors.New("worker died")
	// ErrIncomplete indicates dispatched tasks never produced a result.
	ErrIncomplete = errors.New("batch incomplete")
	// ErrCancelled indicates dispatch stopped before every batch was submitted.
	ErrCancelled = errors.New("run cancelled")
)

// WorkerDeath describes a worker that panicked mid-batch. Lost holds the ids
// of tasks from its current batch that never produced a result.
type WorkerDeath struct {
	Worker int   `json:"worker"`
	Panic  any   `json:"panic"`
	Lost   []int `json:"lost"`
}

func (d *WorkerDeath) Error() string {
	return fmt.Sprintf("%s: worker %d: %v (lost %d tasks)", ErrWorkerDied, d.Worker, d.Panic, len(d.Lost))
}

func (d *WorkerDeath) Is(target error) bool {
	return target == ErrWorkerDied
}
