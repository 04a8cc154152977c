package module_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/docket/pkg/module"
)

func echoPath(tag string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, tag+":"+r.URL.Path)
	})
}

func mustModule(t *testing.T, prefix string, h http.Handler) *module.Module {
	t.Helper()
	m, err := module.New(prefix, h)
	if err != nil {
		t.Fatalf("New(%q) error = %v", prefix, err)
	}
	return m
}

func TestNewPrefixValidation(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"/api", false},
		{"/foia/v1", false},
		{"", true},
		{"api", true},
		{"/", true},
		{"/api/", true},
		{"/api//v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			m, err := module.New(tt.prefix, http.NotFoundHandler())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
			if err == nil && m.Prefix() != tt.prefix {
				t.Errorf("Prefix() = %q", m.Prefix())
			}
		})
	}
}

func TestRouterDispatch(t *testing.T) {
	router := module.NewRouter()
	router.Mount(mustModule(t, "/api", echoPath("api")))
	router.Mount(mustModule(t, "/api/v2", echoPath("v2")))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "native:"+r.URL.Path)
	})

	tests := []struct {
		path string
		want string
	}{
		{"/api", "api:/"},
		{"/api/requests", "api:/requests"},
		{"/api/requests/", "api:/requests"},
		{"/api/v2/requests", "v2:/requests"},
		{"/api/v2", "v2:/"},
		{"/apiary", ""},
		{"/healthz", "native:/healthz"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if tt.want == "" {
				if rec.Code != http.StatusNotFound {
					t.Errorf("status = %d, want 404", rec.Code)
				}
				return
			}
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMountReplaces(t *testing.T) {
	router := module.NewRouter()
	router.Mount(mustModule(t, "/api", echoPath("old")))
	router.Mount(mustModule(t, "/api", echoPath("new")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/x", nil))
	if got := rec.Body.String(); got != "new:/x" {
		t.Errorf("body = %q, want new:/x", got)
	}
}

func TestModuleMiddleware(t *testing.T) {
	m := mustModule(t, "/api", echoPath("api"))

	var order []string
	for _, name := range []string{"outer", "inner"} {
		m.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":"+r.URL.Path)
				next.ServeHTTP(w, r)
			})
		})
	}

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/api/requests", nil))

	if len(order) != 2 || order[0] != "outer:/requests" || order[1] != "inner:/requests" {
		t.Errorf("middleware order = %v", order)
	}
	if got := rec.Body.String(); got != "api:/requests" {
		t.Errorf("body = %q", got)
	}
}

func TestStripLeavesOriginal(t *testing.T) {
	m := mustModule(t, "/api", echoPath("api"))

	req := httptest.NewRequest("GET", "/api/requests?page=2", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if req.URL.Path != "/api/requests" {
		t.Errorf("original path mutated to %q", req.URL.Path)
	}
	if req.URL.RawQuery != "page=2" {
		t.Errorf("query lost: %q", req.URL.RawQuery)
	}
}
