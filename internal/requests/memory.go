package requests

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
)

type memory struct {
	mu         sync.RWMutex
	items      map[uuid.UUID]Request
	logger     *slog.Logger
	pagination pagination.Config
}

// NewMemory creates an in-process request store implementing the System interface.
func NewMemory(logger *slog.Logger, pagination pagination.Config) System {
	return &memory{
		items:      make(map[uuid.UUID]Request),
		logger:     logger.With("system", "requests"),
		pagination: pagination,
	}
}

func (m *memory) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Request], error) {
	page.Normalize(m.pagination)

	m.mu.RLock()
	items := make([]Request, 0, len(m.items))
	for _, r := range m.items {
		if !filters.Match(&r) {
			continue
		}
		if page.Search != nil && *page.Search != "" {
			s := strings.ToLower(*page.Search)
			if !strings.Contains(strings.ToLower(r.Name), s) && !strings.Contains(strings.ToLower(r.Text), s) {
				continue
			}
		}
		items = append(items, r)
	}
	m.mu.RUnlock()

	// newest first, matching the repository default
	slices.SortFunc(items, func(a, b Request) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.Name, b.Name))
	})

	result := pagination.Paginate(items, page)
	return &result, nil
}

func (m *memory) Find(ctx context.Context, id uuid.UUID) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memory) Create(ctx context.Context, cmd CreateCommand) (*Request, error) {
	if err := validate(cmd.Name, cmd.Text); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nameTaken(cmd.Name, uuid.Nil) {
		return nil, ErrDuplicate
	}

	now := time.Now().UTC()
	r := Request{
		ID:          uuid.New(),
		Name:        cmd.Name,
		Description: cmd.Description,
		Text:        cmd.Text,
		Status:      StatusDraft,
		Deadline:    cmd.Deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.items[r.ID] = r

	m.logger.Info("request created", "id", r.ID, "name", r.Name)
	return &r, nil
}

func (m *memory) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Request, error) {
	if err := validate(cmd.Name, cmd.Text); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if m.nameTaken(cmd.Name, id) {
		return nil, ErrDuplicate
	}

	r.Name = cmd.Name
	r.Description = cmd.Description
	r.Text = cmd.Text
	r.Deadline = cmd.Deadline
	r.UpdatedAt = time.Now().UTC()
	m.items[id] = r

	m.logger.Info("request updated", "id", r.ID, "name", r.Name)
	return &r, nil
}

func (m *memory) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Request, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	m.items[id] = r

	m.logger.Info("request status updated", "id", r.ID, "status", r.Status)
	return &r, nil
}

func (m *memory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)

	m.logger.Info("request deleted", "id", id)
	return nil
}

func (m *memory) nameTaken(name string, except uuid.UUID) bool {
	return slices.ContainsFunc(slices.Collect(maps.Values(m.items)), func(r Request) bool {
		return r.ID != except && r.Name == name
	})
}
