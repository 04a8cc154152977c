package audit

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
)

type memory struct {
	mu         sync.RWMutex
	events     []Event
	seq        int64
	pagination pagination.Config
}

// NewMemoryStore creates an in-process Store.
func NewMemoryStore(pagination pagination.Config) Store {
	return &memory{pagination: pagination}
}

func (m *memory) Append(ctx context.Context, e Event) (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	e.ID = uuid.New()
	e.Seq = m.seq
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	m.events = append(m.events, e)
	return e, nil
}

func (m *memory) List(
	ctx context.Context,
	requestID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Event], error) {
	page.Normalize(m.pagination)

	events, _ := m.All(ctx, requestID, filters)
	if page.Search != nil && *page.Search != "" {
		term := strings.ToLower(*page.Search)
		events = slices.DeleteFunc(events, func(e Event) bool {
			return !strings.Contains(strings.ToLower(e.Details), term) &&
				!strings.Contains(strings.ToLower(e.Filename), term)
		})
	}
	if len(page.Sort) > 0 && page.Sort[0].Field == "Timestamp" && page.Sort[0].Descending {
		slices.Reverse(events)
	}

	result := pagination.Paginate(events, page)
	return &result, nil
}

func (m *memory) All(ctx context.Context, requestID uuid.UUID, filters Filters) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]Event, 0)
	for _, e := range m.events {
		if e.RequestID == requestID && filters.Match(&e) {
			events = append(events, e)
		}
	}
	return events, nil
}

func (m *memory) Clear(ctx context.Context, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = slices.DeleteFunc(m.events, func(e Event) bool {
		return e.RequestID == requestID
	})
	return nil
}
