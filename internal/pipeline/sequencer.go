package pipeline

import (
	"maps"
	"slices"
)

// sequencer releases values in contiguous id order starting at 0,
// buffering any that arrive early.
type sequencer[T any] struct {
	next    int
	pending map[int]T
	emit    func(id int, v T)
}

func newSequencer[T any](emit func(int, T)) *sequencer[T] {
	return &sequencer[T]{pending: make(map[int]T), emit: emit}
}

func (s *sequencer[T]) push(id int, v T) {
	s.pending[id] = v
	for {
		v, ok := s.pending[s.next]
		if !ok {
			return
		}
		delete(s.pending, s.next)
		s.emit(s.next, v)
		s.next++
	}
}

// flush releases everything still buffered in id order. Ids that never
// arrived are skipped.
func (s *sequencer[T]) flush() {
	for _, id := range slices.Sorted(maps.Keys(s.pending)) {
		s.emit(id, s.pending[id])
		delete(s.pending, id)
		s.next = id + 1
	}
}
