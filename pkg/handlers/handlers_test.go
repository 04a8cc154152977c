package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/handlers"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondJSON(rec, http.StatusCreated, map[string]string{"name": "budget-2024"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"name":"budget-2024"}` {
		t.Errorf("body = %s", got)
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"client error logs warn", http.StatusNotFound, "WARN"},
		{"server error logs error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			rec := httptest.NewRecorder()

			handlers.RespondError(rec, logger, tt.status, errors.New("request not found"))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["error"] != "request not found" {
				t.Errorf("error = %q", body["error"])
			}

			var entry map[string]any
			if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
				t.Fatalf("log entry: %v", err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type command struct {
		Name string `json:"name"`
	}
	logger := discard()

	tests := []struct {
		name   string
		body   string
		limit  int64
		ok     bool
		status int
	}{
		{"valid", `{"name":"budget-2024"}`, 0, true, http.StatusOK},
		{"malformed", `{"name":`, 0, false, http.StatusBadRequest},
		{"wrong type", `{"name":42}`, 0, false, http.StatusBadRequest},
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/requests", strings.NewReader(tt.body))
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(rec, req.Body, tt.limit)
			}

			var cmd command
			ok := handlers.DecodeJSON(rec, req, logger, &cmd)
			if ok != tt.ok {
				t.Fatalf("DecodeJSON() = %v, want %v", ok, tt.ok)
			}
			if ok {
				if cmd.Name != "budget-2024" {
					t.Errorf("name = %q", cmd.Name)
				}
				return
			}
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestPathUUID(t *testing.T) {
	invalid := errors.New("invalid request id")
	want := uuid.New()

	tests := []struct {
		name       string
		path       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", "/requests/" + want.String(), true, http.StatusOK},
		{"malformed", "/requests/FOIA-2024-001", false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				got uuid.UUID
				ok  bool
			)
			mux := http.NewServeMux()
			mux.HandleFunc("GET /requests/{id}", func(w http.ResponseWriter, r *http.Request) {
				got, ok = handlers.PathUUID(w, r, discard(), "id", invalid)
			})

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if ok != tt.wantOK || rec.Code != tt.wantStatus {
				t.Fatalf("ok = %v status = %d, want %v %d", ok, rec.Code, tt.wantOK, tt.wantStatus)
			}
			if ok && got != want {
				t.Errorf("id = %s, want %s", got, want)
			}
			if !ok && !strings.Contains(rec.Body.String(), invalid.Error()) {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}
