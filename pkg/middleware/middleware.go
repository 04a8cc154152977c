// Package middleware provides the HTTP middleware docket modules compose:
// panic recovery, CORS, access logging, and request body limits.
package middleware

import (
	"net/http"
	"slices"
)

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// System is an ordered middleware stack. The first middleware added runs
// outermost.
type System interface {
	Use(mws ...Middleware)
	Apply(h http.Handler) http.Handler
}

type stack []Middleware

// New creates an empty System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mws ...Middleware) {
	*s = append(*s, mws...)
}

func (s *stack) Apply(h http.Handler) http.Handler {
	for _, mw := range slices.Backward(*s) {
		h = mw(h)
	}
	return h
}
