package middleware_test

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

	"github.com/JaimeStill/docket/pkg/middleware"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		cfg         middleware.CORSConfig
		origin      string
		wantOrigin  string
		wantCreds   string
		wantVary    bool
		wantHandled bool
	}{
		{
			name:        "disabled",
			cfg:         middleware.CORSConfig{Enabled: false, Origins: []string{"http://records.example"}},
			origin:      "http://records.example",
			wantHandled: true,
		},
		{
			name:        "allowed origin",
			cfg:         middleware.CORSConfig{Enabled: true, Origins: []string{"http://records.example"}},
			origin:      "http://records.example",
			wantOrigin:  "http://records.example",
			wantVary:    true,
			wantHandled: true,
		},
		{
			name:        "allowed origin with credentials",
			cfg:         middleware.CORSConfig{Enabled: true, Origins: []string{"http://records.example"}, AllowCredentials: true},
			origin:      "http://records.example",
			wantOrigin:  "http://records.example",
			wantCreds:   "true",
			wantVary:    true,
			wantHandled: true,
		},
		{
			name:        "disallowed origin",
			cfg:         middleware.CORSConfig{Enabled: true, Origins: []string{"http://records.example"}},
			origin:      "http://elsewhere.example",
			wantVary:    true,
			wantHandled: true,
		},
		{
			name:        "wildcard",
			cfg:         middleware.CORSConfig{Enabled: true, Origins: []string{"*"}},
			origin:      "http://anywhere.example",
			wantOrigin:  "*",
			wantVary:    true,
			wantHandled: true,
		},
		{
			name:        "no origin header",
			cfg:         middleware.CORSConfig{Enabled: true, Origins: []string{"*"}},
			wantHandled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var handled bool
			handler := middleware.CORS(&tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handled = true
			}))

			req := httptest.NewRequest("GET", "/api/requests", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("allow-credentials = %q, want %q", got, tt.wantCreds)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tt.wantVary {
				t.Errorf("vary origin = %v, want %v", got, tt.wantVary)
			}
			if handled != tt.wantHandled {
				t.Errorf("handled = %v, want %v", handled, tt.wantHandled)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"http://records.example"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         600,
	}

	var handled bool
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled = true
	}))

	req := httptest.NewRequest("OPTIONS", "/api/requests", nil)
	req.Header.Set("Origin", "http://records.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status: got %d, want 204", rec.Code)
	}
	if handled {
		t.Error("handler should not be called for preflight")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST" {
		t.Errorf("allow-methods: got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("max-age: got %q, want 600", got)
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"implicit ok", 0, "hello", "INFO"},
		{"created", http.StatusCreated, "", "INFO"},
		{"not found", http.StatusNotFound, "", "WARN"},
		{"server error", http.StatusInternalServerError, "", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				io.WriteString(w, tt.body)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/requests?page=2", nil))

			var entry struct {
				Level  string `json:"level"`
				URI    string `json:"uri"`
				Status int    `json:"status"`
				Bytes  int    `json:"bytes"`
			}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log entry: %v", err)
			}

			wantStatus := tt.status
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			if entry.Status != wantStatus {
				t.Errorf("status = %d, want %d", entry.Status, wantStatus)
			}
			if entry.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", entry.Level, tt.wantLevel)
			}
			if entry.Bytes != len(tt.body) {
				t.Errorf("bytes = %d, want %d", entry.Bytes, len(tt.body))
			}
			if entry.URI != "/api/requests?page=2" {
				t.Errorf("uri = %s", entry.URI)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("classifier exploded")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/requests", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("error = %q, want internal error", body["error"])
	}
}

func TestRecoverReraisesAbort(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := middleware.Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		v := recover()
		err, ok := v.(error)
		if !ok || !errors.Is(err, http.ErrAbortHandler) {
			t.Errorf("recovered %v, want http.ErrAbortHandler", v)
		}
	}()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	handler := middleware.MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", strings.NewReader("short")))
	if readErr != nil {
		t.Fatalf("body under limit: %v", readErr)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", strings.NewReader("well past the limit")))
	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("body over limit: got %v, want *http.MaxBytesError", readErr)
	}
}

func TestMaxBytesDisabled(t *testing.T) {
	next := ok()
	if got := middleware.MaxBytes(0)(next); got == nil {
		t.Fatal("MaxBytes(0) returned nil handler")
	}
}

func TestCORSConfigFinalizeDefaults(t *testing.T) {
	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if len(cfg.AllowedMethods) != 5 {
		t.Errorf("allowed_methods: got %d, want 5", len(cfg.AllowedMethods))
	}
	if len(cfg.AllowedHeaders) != 2 {
		t.Errorf("allowed_headers: got %d, want 2", len(cfg.AllowedHeaders))
	}
	if len(cfg.ExposedHeaders) != 1 || cfg.ExposedHeaders[0] != "Content-Disposition" {
		t.Errorf("exposed_headers: got %v", cfg.ExposedHeaders)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max_age: got %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSExposeHeaders(t *testing.T) {
	tests := []struct {
		name    string
		exposed []string
		origin  string
		want    string
	}{
		{"allowed origin", []string{"Content-Disposition", "X-Request-Id"}, "http://records.example", "Content-Disposition, X-Request-Id"},
		{"none configured", []string{}, "http://records.example", ""},
		{"disallowed origin", []string{"Content-Disposition"}, "http://elsewhere.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &middleware.CORSConfig{
				Enabled:        true,
				Origins:        []string{"http://records.example"},
				ExposedHeaders: tt.exposed,
			}
			handler := middleware.CORS(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

			req := httptest.NewRequest("GET", "/api/requests/1/audit/export", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Expose-Headers"); got != tt.want {
				t.Errorf("expose-headers = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCORSConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("TEST_CORS_CREDS", "true")

	env := &middleware.CORSEnv{
		Enabled:          "TEST_CORS_ENABLED",
		Origins:          "TEST_CORS_ORIGINS",
		AllowCredentials: "TEST_CORS_CREDS",
	}

	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled should be true")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[0] != "http://a.example" || cfg.Origins[1] != "http://b.example" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
	if !cfg.AllowCredentials {
		t.Error("allow_credentials should be true")
	}
}

func TestCORSConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     middleware.CORSConfig
		env     map[string]string
		wantErr string
	}{
		{
			name:    "wildcard with credentials",
			cfg:     middleware.CORSConfig{Enabled: true, Origins: []string{"*"}, AllowCredentials: true},
			wantErr: "allow_credentials",
		},
		{
			name:    "malformed enabled",
			env:     map[string]string{"TEST_CORS_ENABLED": "sometimes"},
			wantErr: "TEST_CORS_ENABLED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			err := tt.cfg.Finalize(&middleware.CORSEnv{Enabled: "TEST_CORS_ENABLED"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{
		Enabled:        false,
		Origins:        []string{"http://base.example"},
		AllowedMethods: []string{"GET"},
		MaxAge:         3600,
	}

	overlay := middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://overlay.example"},
		MaxAge:  7200,
	}

	base.Merge(&overlay)

	if !base.Enabled {
		t.Error("enabled should be true after merge")
	}
	if len(base.Origins) != 1 || base.Origins[0] != "http://overlay.example" {
		t.Errorf("origins: got %v", base.Origins)
	}
	if len(base.AllowedMethods) != 1 || base.AllowedMethods[0] != "GET" {
		t.Errorf("allowed_methods should be preserved, got %v", base.AllowedMethods)
	}
	if base.MaxAge != 7200 {
		t.Errorf("max_age: got %d, want 7200", base.MaxAge)
	}
}
