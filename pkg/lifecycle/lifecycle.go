// Package lifecycle coordinates named startup checks and phased shutdown
// across the subsystems of a long-running process.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
)

// Check states reported by Status for startup hooks.
const (
	StatusPending = "pending"
	StatusOK      = "ok"
)

// Coordinator runs startup hooks concurrently and shutdown hooks in two
// phases. Drain hooks run first once the context is cancelled; shutdown hooks
// run only after every drain hook has returned, so work in flight finishes
// before the resources it uses are released.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startupWg  sync.WaitGroup
	drainWg    sync.WaitGroup
	shutdownWg sync.WaitGroup

	mu      sync.RWMutex
	ready   bool
	results map[string]error
	pending map[string]bool
}

// New creates a Coordinator with a cancellable context.
func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:     ctx,
		cancel:  cancel,
		results: make(map[string]error),
		pending: make(map[string]bool),
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently under the coordinator context and records
// its result under name. A failed hook keeps the coordinator from becoming
// ready without stopping the other hooks.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	c.pending[name] = true
	c.mu.Unlock()

	c.startupWg.Go(func() {
		err := fn(c.ctx)

		c.mu.Lock()
		delete(c.pending, name)
		c.results[name] = err
		c.mu.Unlock()
	})
}

// OnDrain registers fn to run as soon as shutdown begins.
func (c *Coordinator) OnDrain(fn func()) {
	c.drainWg.Add(1)
	c.shutdownWg.Go(func() {
		defer c.drainWg.Done()
		<-c.ctx.Done()
		fn()
	})
}

// OnShutdown registers fn to run after every drain hook has completed.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(func() {
		<-c.ctx.Done()
		c.drainWg.Wait()
		fn()
	})
}

// Ready reports whether every startup hook has completed without error.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Status returns the state of every named startup hook: StatusPending,
// StatusOK, or the error message the hook returned.
func (c *Coordinator) Status() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := make(map[string]string, len(c.results)+len(c.pending))
	for name := range maps.Keys(c.pending) {
		status[name] = StatusPending
	}
	for name, err := range c.results {
		if err != nil {
			status[name] = err.Error()
		} else {
			status[name] = StatusOK
		}
	}
	return status
}

// WaitForStartup blocks until all startup hooks have completed. It marks the
// coordinator ready when none failed and otherwise returns the joined hook
// errors, each prefixed with its hook name.
func (c *Coordinator) WaitForStartup() error {
	c.startupWg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, err := range c.results {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	c.ready = len(errs) == 0
	return errors.Join(errs...)
}

// Shutdown cancels the context and waits for drain and shutdown hooks to
// complete within the given timeout.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
