package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/pkg/lifecycle"
)

func getHealth(t *testing.T, h http.Handler, path string) (int, health) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

	var body health
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec.Code, body
}

func newTestInfra() *infrastructure.Infrastructure {
	return &infrastructure.Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHealthz(t *testing.T) {
	router := buildRouter(newTestInfra())

	code, body := getHealth(t, router, "/healthz")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("healthz = %d %q", code, body.Status)
	}
}

func TestReadyz(t *testing.T) {
	infra := newTestInfra()
	router := buildRouter(infra)

	infra.Lifecycle.OnStartup("database", func(ctx context.Context) error { return nil })
	infra.Lifecycle.OnStartup("storage", func(ctx context.Context) error {
		return errors.New("container unreachable")
	})

	code, _ := getHealth(t, router, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("before startup = %d, want 503", code)
	}

	if err := infra.Lifecycle.WaitForStartup(); err == nil {
		t.Fatal("expected startup error")
	}

	code, body := getHealth(t, router, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("after failed startup = %d, want 503", code)
	}
	if body.Checks["database"] != lifecycle.StatusOK {
		t.Errorf("database check = %q", body.Checks["database"])
	}
	if body.Checks["storage"] != "container unreachable" {
		t.Errorf("storage check = %q", body.Checks["storage"])
	}
}

func TestReadyzReady(t *testing.T) {
	infra := newTestInfra()
	router := buildRouter(infra)

	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup() error = %v", err)
	}

	code, body := getHealth(t, router, "/readyz")
	if code != http.StatusOK || body.Status != "ready" {
		t.Errorf("readyz = %d %q", code, body.Status)
	}
}
