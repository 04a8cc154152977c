package parallel_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/docket/pkg/parallel"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func payloads(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func doubler(worker int) (parallel.Processor[int, int], error) {
	return parallel.ProcessorFunc[int, int](func(ctx context.Context, task parallel.Task[int]) (int, error) {
		if task.ID%3 == 0 {
			time.Sleep(time.Millisecond)
		}
		return task.Payload * 2, nil
	}), nil
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		name    string
		tasks   int
		workers int
		want    int
	}{
		{"no tasks", 0, 4, 1},
		{"fewer tasks than workers", 3, 4, 1},
		{"exactly four per worker", 16, 4, 1},
		{"one over", 17, 4, 2},
		{"large batch", 100, 4, 7},
		{"zero workers treated as one", 9, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parallel.BatchSize(tt.tasks, tt.workers); got != tt.want {
				t.Errorf("BatchSize(%d, %d) = %d, want %d", tt.tasks, tt.workers, got, tt.want)
			}
		})
	}
}

func TestBatches(t *testing.T) {
	tasks := make([]parallel.Task[int], 10)
	for i := range tasks {
		tasks[i] = parallel.Task[int]{ID: i}
	}

	batches := parallel.Batches(tasks, 3)
	if len(batches) != 4 {
		t.Fatalf("len(batches) = %d, want 4", len(batches))
	}

	sizes := []int{3, 3, 3, 1}
	next := 0
	for i, b := range batches {
		if len(b) != sizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(b), sizes[i])
		}
		for _, task := range b {
			if task.ID != next {
				t.Errorf("batch %d task id = %d, want %d", i, task.ID, next)
			}
			next++
		}
	}
}

func TestRate(t *testing.T) {
	if got := parallel.Rate(30, 30*time.Second); got != 60 {
		t.Errorf("Rate(30, 30s) = %v, want 60", got)
	}
	if got := parallel.Rate(5, 0); got != 0 {
		t.Errorf("Rate(5, 0) = %v, want 0", got)
	}
}

func TestRunEveryTaskOnce(t *testing.T) {
	const n = 37

	for _, workers := range []int{1, 2, 4, 8} {
		for _, batch := range []int{0, 1, 3, 50} {
			t.Run(fmt.Sprintf("workers=%d/batch=%d", workers, batch), func(t *testing.T) {
				pool := parallel.New(parallel.Config{
					Workers:      workers,
					BatchSize:    batch,
					PollInterval: 10 * time.Millisecond,
				}, doubler, discard())

				report, err := pool.Run(context.Background(), payloads(n), parallel.Observer[int]{})
				if err != nil {
					t.Fatalf("Run() error = %v", err)
				}

				results := report.Results()
				if len(results) != n {
					t.Fatalf("len(results) = %d, want %d", len(results), n)
				}
				for i, r := range results {
					if r.TaskID != i {
						t.Errorf("results[%d].TaskID = %d, want %d", i, r.TaskID, i)
					}
					if r.Value != i*2 {
						t.Errorf("results[%d].Value = %d, want %d", i, r.Value, i*2)
					}
				}
				if report.Dispatched != n {
					t.Errorf("Dispatched = %d, want %d", report.Dispatched, n)
				}
			})
		}
	}
}

func TestRunNoTasks(t *testing.T) {
	pool := parallel.New(parallel.Config{}, doubler, discard())

	_, err := pool.Run(context.Background(), nil, parallel.Observer[int]{})
	if !errors.Is(err, parallel.ErrNoTasks) {
		t.Errorf("Run() error = %v, want ErrNoTasks", err)
	}
}

func TestRunSetupError(t *testing.T) {
	setupErr := errors.New("no credentials")
	pool := parallel.New(parallel.Config{Workers: 2}, func(int) (parallel.Processor[int, int], error) {
		return nil, setupErr
	}, discard())

	_, err := pool.Run(context.Background(), payloads(4), parallel.Observer[int]{})
	if !errors.Is(err, parallel.ErrSetup) || !errors.Is(err, setupErr) {
		t.Errorf("Run() error = %v, want ErrSetup wrapping cause", err)
	}
}

func TestRunTaskErrorsAreIsolated(t *testing.T) {
	boom := errors.New("boom")
	pool := parallel.New(parallel.Config{Workers: 2}, func(int) (parallel.Processor[int, int], error) {
		return parallel.ProcessorFunc[int, int](func(ctx context.Context, task parallel.Task[int]) (int, error) {
			if task.ID == 1 {
				return 0, boom
			}
			return task.Payload, nil
		}), nil
	}, discard())

	var errs []error
	report, err := pool.Run(context.Background(), payloads(3), parallel.Observer[int]{
		OnError: func(err error) { errs = append(errs, err) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	results := report.Results()
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Failed() || results[2].Failed() {
		t.Error("tasks 0 and 2 should succeed")
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("results[1].Err = %v, want boom", results[1].Err)
	}
	if len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Errorf("OnError calls = %v, want one boom", errs)
	}
}

func TestRunWorkerDeath(t *testing.T) {
	pool := parallel.New(parallel.Config{
		Workers:      2,
		BatchSize:    2,
		PollInterval: 5 * time.Millisecond,
	}, func(int) (parallel.Processor[int, int], error) {
		return parallel.ProcessorFunc[int, int](func(ctx context.Context, task parallel.Task[int]) (int, error) {
			if task.ID == 5 {
				panic("corrupt input")
			}
			return task.Payload, nil
		}), nil
	}, discard())

	var died atomic.Int32
	report, err := pool.Run(context.Background(), payloads(10), parallel.Observer[int]{
		OnError: func(err error) {
			if errors.Is(err, parallel.ErrWorkerDied) {
				died.Add(1)
			}
		},
	})
	if !errors.Is(err, parallel.ErrIncomplete) {
		t.Fatalf("Run() error = %v, want ErrIncomplete", err)
	}

	if got := died.Load(); got != 1 {
		t.Errorf("worker death callbacks = %d, want 1", got)
	}
	if len(report.Deaths) != 1 {
		t.Fatalf("len(Deaths) = %d, want 1", len(report.Deaths))
	}
	if len(report.Missing) != 1 || report.Missing[0] != 5 {
		t.Errorf("Missing = %v, want [5]", report.Missing)
	}
	if got := len(report.Results()); got != 9 {
		t.Errorf("len(results) = %d, want 9", got)
	}
}

func TestRunAllWorkersDie(t *testing.T) {
	pool := parallel.New(parallel.Config{
		Workers:      2,
		BatchSize:    1,
		PollInterval: 5 * time.Millisecond,
	}, func(int) (parallel.Processor[int, int], error) {
		return parallel.ProcessorFunc[int, int](func(ctx context.Context, task parallel.Task[int]) (int, error) {
			panic("always")
		}), nil
	}, discard())

	done := make(chan struct{})
	var (
		report *parallel.Report[int]
		err    error
	)
	go func() {
		report, err = pool.Run(context.Background(), payloads(6), parallel.Observer[int]{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after every worker died")
	}

	if !errors.Is(err, parallel.ErrIncomplete) {
		t.Errorf("Run() error = %v, want ErrIncomplete", err)
	}
	if len(report.Missing) != 6 {
		t.Errorf("len(Missing) = %d, want 6", len(report.Missing))
	}
	if len(report.Deaths) != 2 {
		t.Errorf("len(Deaths) = %d, want 2", len(report.Deaths))
	}
}

func TestRunCancellationDrains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := parallel.New(parallel.Config{
		Workers:      1,
		BatchSize:    1,
		PollInterval: 5 * time.Millisecond,
	}, func(int) (parallel.Processor[int, int], error) {
		return parallel.ProcessorFunc[int, int](func(ctx context.Context, task parallel.Task[int]) (int, error) {
			time.Sleep(2 * time.Millisecond)
			return task.Payload, ctx.Err()
		}), nil
	}, discard())

	report, err := pool.Run(ctx, payloads(20), parallel.Observer[int]{
		OnResult: func(parallel.Result[int]) { cancel() },
	})
	if !errors.Is(err, parallel.ErrCancelled) {
		t.Fatalf("Run() error = %v, want ErrCancelled", err)
	}

	if !report.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if report.Dispatched >= 20 {
		t.Errorf("Dispatched = %d, want fewer than 20", report.Dispatched)
	}

	results := report.Results()
	if len(results) != report.Dispatched {
		t.Errorf("len(results) = %d, want %d (all dispatched tasks drained)", len(results), report.Dispatched)
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("task %d ran on a cancelled context: %v", r.TaskID, r.Err)
		}
	}
}

func TestRunProgressHonorsTotalAndCounts(t *testing.T) {
	pool := parallel.New(parallel.Config{Workers: 3}, doubler, discard())

	var (
		last parallel.Progress
		peak int
	)
	report, err := pool.Run(context.Background(), payloads(10), parallel.Observer[int]{
		Total:  7,
		Counts: func(r parallel.Result[int]) bool { return r.TaskID >= 3 },
		OnProgress: func(p parallel.Progress) {
			last = p
			peak = max(peak, p.Current)
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if last.Current != 7 || last.Total != 7 {
		t.Errorf("final progress = (%d,%d), want (7,7)", last.Current, last.Total)
	}
	if peak > 7 {
		t.Errorf("progress peaked at %d, want at most 7", peak)
	}
	if report.Counted != 7 {
		t.Errorf("Counted = %d, want 7", report.Counted)
	}
	if last.Workers != 3 {
		t.Errorf("Workers = %d, want 3", last.Workers)
	}
}
