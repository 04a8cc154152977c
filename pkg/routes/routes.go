// Package routes declares HTTP routes as nested groups and registers them on
// a ServeMux using method-qualified patterns.
package routes

import (
	"net/http"
	"slices"
)

// Route binds an HTTP method and pattern to a handler. Pattern is appended
// to the prefixes of every enclosing group and may be empty.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group collects routes and child groups under a shared prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, "", func(pattern string, r Route) {
		mux.HandleFunc(pattern, r.Handler)
	})
}

// Patterns returns the sorted method-qualified pattern of every route in
// groups, as Register would add them.
func Patterns(groups ...Group) []string {
	var patterns []string
	walk(groups, "", func(pattern string, _ Route) {
		patterns = append(patterns, pattern)
	})
	slices.Sort(patterns)
	return patterns
}

func walk(groups []Group, parent string, visit func(pattern string, r Route)) {
	for _, g := range groups {
		prefix := parent + g.Prefix
		for _, r := range g.Routes {
			path := prefix + r.Pattern
			if path == "" {
				path = "/"
			}
			visit(r.Method+" "+path, r)
		}
		walk(g.Children, prefix, visit)
	}
}
