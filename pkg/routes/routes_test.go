package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/docket/pkg/routes"
)

func status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func requestGroups() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/requests",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: status(http.StatusOK)},
				{Method: "POST", Pattern: "", Handler: status(http.StatusCreated)},
			},
			Children: []routes.Group{
				{
					Prefix: "/{id}",
					Routes: []routes.Route{
						{Method: "GET", Pattern: "/documents", Handler: status(http.StatusOK)},
						{Method: "POST", Pattern: "/process", Handler: status(http.StatusAccepted)},
					},
				},
			},
		},
		{
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: status(http.StatusNoContent)},
			},
		},
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, requestGroups()...)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/requests", http.StatusOK},
		{"POST", "/requests", http.StatusCreated},
		{"GET", "/requests/abc/documents", http.StatusOK},
		{"POST", "/requests/abc/process", http.StatusAccepted},
		{"DELETE", "/requests", http.StatusMethodNotAllowed},
		{"GET", "/", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestPatterns(t *testing.T) {
	got := routes.Patterns(requestGroups()...)
	want := []string{
		"GET /",
		"GET /requests",
		"GET /requests/{id}/documents",
		"POST /requests",
		"POST /requests/{id}/process",
	}

	if !slices.Equal(got, want) {
		t.Errorf("Patterns() = %v, want %v", got, want)
	}
}

func TestPatternsEmpty(t *testing.T) {
	if got := routes.Patterns(); len(got) != 0 {
		t.Errorf("Patterns() = %v, want empty", got)
	}
}
