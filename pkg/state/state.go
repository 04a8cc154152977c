// Package state provides an immutable key/value state bag and a small
// directed state graph for sequencing workflow nodes.
package state

import "maps"

// State is an immutable key/value bag passed between graph nodes.
// Set returns a new State; the receiver is never modified.
type State struct {
	data map[string]any
}

// New creates a State seeded with a copy of data. A nil map yields an empty State.
func New(data map[string]any) State {
	s := State{data: make(map[string]any, len(data))}
	maps.Copy(s.data, data)
	return s
}

// Get returns the value stored under key and whether it was present.
func (s State) Get(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set returns a copy of the State with key bound to value.
func (s State) Set(key string, value any) State {
	next := State{data: make(map[string]any, len(s.data)+1)}
	maps.Copy(next.data, s.data)
	next.data[key] = value
	return next
}

// Len returns the number of keys held by the State.
func (s State) Len() int {
	return len(s.data)
}

// Predicate decides whether an edge should be followed for the given state.
type Predicate func(State) bool

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(s State) bool {
		return !p(s)
	}
}
