// Package parallel provides a generic batched worker pool that streams
// per-task results back to a single collecting goroutine. Results arrive
// out of order; callers reassemble them by task id.
package parallel

import (
	"context"
	"runtime"
	"slices"
	"time"
)

const (
	// BatchesPerWorker is the target number of batches queued per worker.
	BatchesPerWorker = 4

	DefaultPollInterval = time.Second
	DefaultJoinTimeout  = 5 * time.Second
)

// Task is a unit of work. ID is assigned in submission order and is the
// only key used to reassemble results.
type Task[P any] struct {
	ID      int
	Payload P
}

// Result carries the outcome of exactly one Task. Err is set when the
// processor failed; otherwise Value holds the output.
type Result[R any] struct {
	TaskID   int
	Worker   int
	Value    R
	Err      error
	Duration time.Duration
}

// Failed reports whether the task produced an error.
func (r Result[R]) Failed() bool {
	return r.Err != nil
}

// Processor handles a single task on a worker goroutine.
type Processor[P, R any] interface {
	Process(ctx context.Context, task Task[P]) (R, error)
}

// ProcessorFunc adapts a function into a Processor.
type ProcessorFunc[P, R any] func(ctx context.Context, task Task[P]) (R, error)

func (f ProcessorFunc[P, R]) Process(ctx context.Context, task Task[P]) (R, error) {
	return f(ctx, task)
}

// SetupFunc builds the Processor owned by one worker. It is called once per
// worker before any task is dispatched.
type SetupFunc[P, R any] func(worker int) (Processor[P, R], error)

// Progress is a live snapshot emitted after each counted result.
type Progress struct {
	Current int           `json:"current"`
	Total   int           `json:"total"`
	Workers int           `json:"workers"`
	Rate    float64       `json:"rate"`
	Elapsed time.Duration `json:"elapsed"`
}

// Observer receives collection callbacks. All callbacks run on the
// collecting goroutine, in result arrival order.
type Observer[R any] struct {
	// Total overrides the progress denominator. Zero means the task count.
	Total int
	// Counts decides whether a result advances progress. Nil counts every result.
	Counts func(Result[R]) bool

	OnResult   func(Result[R])
	OnProgress func(Progress)
	OnError    func(error)
}

// DefaultWorkers leaves one CPU for the collector, capped at four workers.
func DefaultWorkers() int {
	return min(4, max(1, runtime.NumCPU()-1))
}

// BatchSize returns the batch size that yields roughly BatchesPerWorker
// batches per worker. It is never less than 1.
func BatchSize(tasks, workers int) int {
	if tasks <= 0 {
		return 1
	}
	target := BatchesPerWorker * max(workers, 1)
	return max(1, (tasks+target-1)/target)
}

// Batches splits tasks into contiguous batches of at most size tasks.
func Batches[P any](tasks []Task[P], size int) [][]Task[P] {
	return slices.Collect(slices.Chunk(tasks, max(size, 1)))
}

// Rate converts a count over an elapsed duration into items per minute.
func Rate(count int, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(count) / seconds * 60
}
