// Package module mounts independently configured HTTP handlers under path
// prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/docket/pkg/middleware"
)

// Module serves the requests under one path prefix. The prefix is stripped
// before the request reaches the inner handler, so handlers register paths
// relative to the mount point.
type Module struct {
	prefix     string
	inner      http.Handler
	middleware middleware.System
}

// New creates a Module for prefix, such as "/api" or "/foia/v1". The prefix
// must begin with "/" and must not end with one.
func New(prefix string, inner http.Handler) (*Module, error) {
	if err := validatePrefix(prefix); err != nil {
		return nil, err
	}
	return &Module{
		prefix:     prefix,
		inner:      inner,
		middleware: middleware.New(),
	}, nil
}

// Prefix returns the mount point.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends mw to the module's middleware. The first middleware added is
// the outermost.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// ServeHTTP strips the prefix and dispatches through the middleware stack.
func (m *Module) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.middleware.Apply(m.inner).ServeHTTP(w, strip(r, m.prefix))
}

func (m *Module) matches(path string) bool {
	return path == m.prefix || strings.HasPrefix(path, m.prefix+"/")
}

func strip(r *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	u := new(url.URL)
	*u = *r.URL
	u.Path = path
	u.RawPath = ""

	out := r.Clone(r.Context())
	out.URL = u
	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case prefix == "/" || strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("module prefix must not end with /: %s", prefix)
	case strings.Contains(prefix, "//"):
		return fmt.Errorf("module prefix contains an empty segment: %s", prefix)
	}
	return nil
}
