package feedback

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type memory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
}

// NewMemory creates a process-local Repository.
func NewMemory() Repository {
	return &memory{entries: make(map[uuid.UUID][]Entry)}
}

func (m *memory) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	m.entries[e.RequestID] = append(m.entries[e.RequestID], e)
	m.mu.Unlock()
	return nil
}

func (m *memory) Entries(_ context.Context, requestID uuid.UUID) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.entries[requestID]), nil
}

func (m *memory) Clear(_ context.Context, requestID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries[requestID])
	delete(m.entries, requestID)
	return n, nil
}
