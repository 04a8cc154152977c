package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/docket/pkg/lifecycle"
)

func TestNotReadyBeforeStartup(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}
}

func TestReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New()
	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup() error = %v", err)
	}

	if !lc.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for _, name := range []string{"database", "storage", "embeddings"} {
		lc.OnStartup(name, func(ctx context.Context) error {
			count.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup() error = %v", err)
	}

	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}

	for name, state := range lc.Status() {
		if state != lifecycle.StatusOK {
			t.Errorf("status[%s] = %q, want ok", name, state)
		}
	}
}

func TestStartupFailureBlocksReadiness(t *testing.T) {
	lc := lifecycle.New()

	lc.OnStartup("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	lc.OnStartup("storage", func(ctx context.Context) error {
		return nil
	})

	err := lc.WaitForStartup()
	if err == nil {
		t.Fatal("expected startup error")
	}
	if !strings.Contains(err.Error(), "database: connection refused") {
		t.Errorf("error %q does not name the failed hook", err)
	}

	if lc.Ready() {
		t.Error("should not be ready after a failed hook")
	}

	status := lc.Status()
	if status["database"] != "connection refused" {
		t.Errorf("status[database] = %q, want connection refused", status["database"])
	}
	if status["storage"] != lifecycle.StatusOK {
		t.Errorf("status[storage] = %q, want ok", status["storage"])
	}
}

func TestStatusPending(t *testing.T) {
	lc := lifecycle.New()

	release := make(chan struct{})
	lc.OnStartup("database", func(ctx context.Context) error {
		<-release
		return nil
	})

	if got := lc.Status()["database"]; got != lifecycle.StatusPending {
		t.Errorf("status[database] = %q, want pending", got)
	}

	close(release)
	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup() error = %v", err)
	}

	if got := lc.Status()["database"]; got != lifecycle.StatusOK {
		t.Errorf("status[database] = %q, want ok", got)
	}
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		cleaned.Store(true)
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}
}

func TestDrainRunsBeforeShutdown(t *testing.T) {
	lc := lifecycle.New()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	lc.OnShutdown(func() { record("close database") })
	lc.OnDrain(func() {
		time.Sleep(20 * time.Millisecond)
		record("drain runs")
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if len(order) != 2 || order[0] != "drain runs" || order[1] != "close database" {
		t.Errorf("order = %v, want [drain runs close database]", order)
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnDrain(func() {
		time.Sleep(500 * time.Millisecond)
	})

	err := lc.Shutdown(50 * time.Millisecond)
	if err == nil {
		t.Error("expected timeout error, got nil")
	}
}

func TestContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context should be cancelled after shutdown")
	}
}
