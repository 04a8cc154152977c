package parallel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config controls pool sizing and collection timing.
type Config struct {
	Name         string
	Workers      int
	BatchSize    int
	PollInterval time.Duration
	JoinTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "pool"
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	return c
}

// Pool runs a fixed set of worker goroutines over batches of tasks.
// A Pool may be reused for multiple runs; each Run builds fresh workers.
type Pool[P, R any] struct {
	cfg    Config
	setup  SetupFunc[P, R]
	logger *slog.Logger
}

// New creates a Pool. Zero Config fields take package defaults.
func New[P, R any](cfg Config, setup SetupFunc[P, R], logger *slog.Logger) *Pool[P, R] {
	cfg = cfg.withDefaults()
	return &Pool[P, R]{
		cfg:    cfg,
		setup:  setup,
		logger: logger.With("system", "parallel", "pool", cfg.Name),
	}
}

// Report summarizes a completed run.
type Report[R any] struct {
	Tasks      int
	Dispatched int
	Counted    int
	Workers    int
	BatchSize  int
	Cancelled  bool
	Deaths     []WorkerDeath
	Missing    []int
	Started    time.Time
	Elapsed    time.Duration

	results []Result[R]
}

// Results returns a copy of the collected results sorted by task id.
func (r *Report[R]) Results() []Result[R] {
	sorted := slices.Clone(r.results)
	slices.SortFunc(sorted, func(a, b Result[R]) int {
		return a.TaskID - b.TaskID
	})
	return sorted
}

// Rate returns counted results per minute over the run.
func (r *Report[R]) Rate() float64 {
	return Rate(r.Counted, r.Elapsed)
}

type run[P, R any] struct {
	pool     *Pool[P, R]
	obs      Observer[R]
	batches  [][]Task[P]
	tasks    int
	workers  int
	started  time.Time
	results  chan Result[R]
	deaths   chan WorkerDeath
	sent     atomic.Int64
	stopped  atomic.Bool
	exited   chan struct{}
	finished chan struct{}
}

// Run submits one task per payload and blocks until every dispatched task
// has a result, every worker has exited, or both.
//
// Cancelling ctx stops dispatch between batches; batches already handed to
// a worker run to completion and are still collected. The returned Report
// is non-nil whenever workers were started, including alongside
// ErrIncomplete or ErrCancelled.
func (p *Pool[P, R]) Run(ctx context.Context, payloads []P, obs Observer[R]) (*Report[R], error) {
	if len(payloads) == 0 {
		return nil, ErrNoTasks
	}

	tasks := make([]Task[P], len(payloads))
	for i, payload := range payloads {
		tasks[i] = Task[P]{ID: i, Payload: payload}
	}

	size := p.cfg.BatchSize
	if size <= 0 {
		size = BatchSize(len(tasks), p.cfg.Workers)
	}
	batches := Batches(tasks, size)
	workers := max(1, min(p.cfg.Workers, len(batches)))

	processors := make([]Processor[P, R], workers)
	for w := range workers {
		proc, err := p.setup(w)
		if err != nil {
			return nil, fmt.Errorf("%w: worker %d: %w", ErrSetup, w, err)
		}
		processors[w] = proc
	}

	if obs.Total <= 0 {
		obs.Total = len(tasks)
	}
	if obs.Counts == nil {
		obs.Counts = func(Result[R]) bool { return true }
	}

	r := &run[P, R]{
		pool:     p,
		obs:      obs,
		batches:  batches,
		tasks:    len(tasks),
		workers:  workers,
		started:  time.Now(),
		results:  make(chan Result[R], len(tasks)),
		deaths:   make(chan WorkerDeath, workers),
		exited:   make(chan struct{}),
		finished: make(chan struct{}),
	}

	p.logger.Info(
		"run started",
		"tasks", len(tasks),
		"workers", workers,
		"batch_size", size,
		"batches", len(batches),
	)

	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	queue := make(chan []Task[P])

	var g errgroup.Group
	for w, proc := range processors {
		g.Go(func() error {
			return r.work(workCtx, w, proc, queue)
		})
	}
	go func() {
		g.Wait()
		close(r.exited)
	}()

	go r.dispatch(ctx, queue)

	report := r.collect()
	report.BatchSize = size

	select {
	case <-r.exited:
	case <-time.After(p.cfg.JoinTimeout):
		cancelWork()
		p.logger.Warn("abandoning workers after join timeout", "timeout", p.cfg.JoinTimeout)
	}

	p.logger.Info(
		"run complete",
		"dispatched", report.Dispatched,
		"results", len(report.results),
		"deaths", len(report.Deaths),
		"cancelled", report.Cancelled,
		"elapsed", report.Elapsed,
		"rate", fmt.Sprintf("%.1f/min", report.Rate()),
	)

	if len(report.Missing) > 0 {
		return report, fmt.Errorf("%w: %d of %d tasks missing", ErrIncomplete, len(report.Missing), report.Dispatched)
	}
	if report.Cancelled {
		return report, fmt.Errorf("%w: %d of %d tasks dispatched", ErrCancelled, report.Dispatched, report.Tasks)
	}
	return report, nil
}

// dispatch feeds batches to the workers, checking for cancellation between
// batches. Closing the queue signals every worker to stop.
func (r *run[P, R]) dispatch(ctx context.Context, queue chan<- []Task[P]) {
	defer close(r.finished)
	defer close(queue)

	for _, batch := range r.batches {
		if ctx.Err() != nil {
			r.stopped.Store(true)
			return
		}

		select {
		case queue <- batch:
			r.sent.Add(int64(len(batch)))
		case <-ctx.Done():
			r.stopped.Store(true)
			return
		case <-r.exited:
			return
		}
	}
}

func (r *run[P, R]) work(ctx context.Context, id int, proc Processor[P, R], queue <-chan []Task[P]) (err error) {
	var (
		current []Task[P]
		next    int
	)

	defer func() {
		if v := recover(); v != nil {
			lost := make([]int, 0, len(current)-next)
			for _, t := range current[next:] {
				lost = append(lost, t.ID)
			}
			death := WorkerDeath{Worker: id, Panic: v, Lost: lost}
			r.deaths <- death
			err = &death
		}
	}()

	for batch := range queue {
		current, next = batch, 0
		for i, task := range batch {
			next = i
			start := time.Now()
			value, perr := proc.Process(ctx, task)
			r.results <- Result[R]{
				TaskID:   task.ID,
				Worker:   id,
				Value:    value,
				Err:      perr,
				Duration: time.Since(start),
			}
			next = i + 1
		}
	}

	return nil
}

func (r *run[P, R]) collect() *Report[R] {
	var (
		received     = make([]Result[R], 0, r.tasks)
		seen         = make(map[int]bool, r.tasks)
		deaths       []WorkerDeath
		counted      int
		finished     = r.finished
		exited       = r.exited
		dispatchDone bool
		allExited    bool
	)

	handle := func(res Result[R]) {
		received = append(received, res)
		seen[res.TaskID] = true

		if r.obs.OnResult != nil {
			r.obs.OnResult(res)
		}
		if r.obs.Counts(res) {
			counted++
			if r.obs.OnProgress != nil {
				elapsed := time.Since(r.started)
				r.obs.OnProgress(Progress{
					Current: counted,
					Total:   r.obs.Total,
					Workers: r.workers,
					Rate:    Rate(counted, elapsed),
					Elapsed: elapsed,
				})
			}
		}
		if res.Err != nil && r.obs.OnError != nil {
			r.obs.OnError(fmt.Errorf("task %d: %w", res.TaskID, res.Err))
		}
	}

	checkLiveness := func() {
		for {
			select {
			case d := <-r.deaths:
				deaths = append(deaths, d)
				r.pool.logger.Error("worker died", "worker", d.Worker, "panic", d.Panic, "lost", d.Lost)
				if r.obs.OnError != nil {
					r.obs.OnError(&d)
				}
			default:
				return
			}
		}
	}

	for {
		if dispatchDone && len(received) >= int(r.sent.Load()) {
			break
		}
		if allExited {
			// no further sends are possible; drain what is buffered
			for len(r.results) > 0 {
				handle(<-r.results)
			}
			break
		}

		select {
		case res := <-r.results:
			handle(res)
		case <-finished:
			dispatchDone = true
			finished = nil
		case <-exited:
			allExited = true
			exited = nil
		case <-time.After(r.pool.cfg.PollInterval):
			checkLiveness()
		}
	}
	checkLiveness()

	// Task ids are dispatched in order, so a cancelled run only owes results
	// for the first dispatched ids. Otherwise every task is owed one.
	dispatched := int(r.sent.Load())
	owed := r.tasks
	if r.stopped.Load() {
		owed = dispatched
	}
	var missing []int
	for id := range owed {
		if !seen[id] {
			missing = append(missing, id)
		}
	}

	return &Report[R]{
		Tasks:      r.tasks,
		Dispatched: dispatched,
		Counted:    counted,
		Workers:    r.workers,
		Cancelled:  r.stopped.Load(),
		Deaths:     deaths,
		Missing:    missing,
		Started:    r.started,
		Elapsed:    time.Since(r.started),
		results:    received,
	}
}
