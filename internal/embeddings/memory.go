package embeddings

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type record struct {
	filename string
	hash     string
	vec      []float32
}

type bucket struct {
	index   map[string]int
	records []record
}

type memory struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*bucket
}

// NewMemory creates an in-process Store.
func NewMemory() Store {
	return &memory{requests: make(map[uuid.UUID]*bucket)}
}

func (m *memory) FindExact(ctx context.Context, requestID uuid.UUID, hash string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.requests[requestID]
	if !ok {
		return "", false, nil
	}
	for _, r := range b.records {
		if r.hash == hash {
			return r.filename, true, nil
		}
	}
	return "", false, nil
}

func (m *memory) FindSimilar(ctx context.Context, requestID uuid.UUID, vec []float32, threshold float64) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0)
	b, ok := m.requests[requestID]
	if !ok {
		return matches, nil
	}

	for _, r := range b.records {
		if r.vec == nil {
			continue
		}
		if score := Cosine(vec, r.vec); score >= threshold {
			matches = append(matches, Match{Filename: r.filename, Score: score})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return matches, nil
}

func (m *memory) Add(ctx context.Context, requestID uuid.UUID, filename, hash string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.requests[requestID]
	if !ok {
		b = &bucket{index: make(map[string]int)}
		m.requests[requestID] = b
	}

	r := record{filename: filename, hash: hash, vec: slices.Clone(vec)}
	if i, ok := b.index[filename]; ok {
		b.records[i] = r
		return nil
	}
	b.index[filename] = len(b.records)
	b.records = append(b.records, r)
	return nil
}

func (m *memory) Count(ctx context.Context, requestID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if b, ok := m.requests[requestID]; ok {
		return len(b.records), nil
	}
	return 0, nil
}

func (m *memory) Clear(ctx context.Context, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, requestID)
	return nil
}
