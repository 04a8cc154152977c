package module

import (
	"net/http"
	"slices"
	"strings"
)

// Router dispatches each request to the mounted module with the longest
// matching prefix. Requests no module claims go to a native ServeMux.
type Router struct {
	modules []*Module
	native  *http.ServeMux
}

// NewRouter creates a Router with no modules mounted.
func NewRouter() *Router {
	return &Router{native: http.NewServeMux()}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount adds m, replacing any module already mounted at the same prefix.
func (r *Router) Mount(m *Module) {
	r.modules = slices.DeleteFunc(r.modules, func(x *Module) bool {
		return x.prefix == m.prefix
	})
	r.modules = append(r.modules, m)
	slices.SortFunc(r.modules, func(a, b *Module) int {
		return len(b.prefix) - len(a.prefix)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimSuffix(p, "/")
	}

	for _, m := range r.modules {
		if m.matches(req.URL.Path) {
			m.ServeHTTP(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}
