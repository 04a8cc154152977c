package documents

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/query"
)

type memory struct {
	mu         sync.RWMutex
	requests   map[uuid.UUID]map[string]Document
	logger     *slog.Logger
	pagination pagination.Config
}

// NewMemory creates an in-process document store implementing the System interface.
func NewMemory(logger *slog.Logger, pagination pagination.Config) System {
	return &memory{
		requests:   make(map[uuid.UUID]map[string]Document),
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (m *memory) Save(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.requests[doc.RequestID]
	if !ok {
		docs = make(map[string]Document)
		m.requests[doc.RequestID] = docs
	}

	now := time.Now().UTC()
	if prev, ok := docs[doc.Filename]; ok {
		doc.CreatedAt = prev.CreatedAt
	} else {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.Exemptions = slices.Clone(doc.Exemptions)

	docs[doc.Filename] = doc
	return nil
}

func (m *memory) Find(ctx context.Context, requestID uuid.UUID, filename string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.requests[requestID][filename]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (m *memory) List(
	ctx context.Context,
	requestID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(m.pagination)

	docs := m.filter(requestID, func(d *Document) bool {
		if !filters.Match(d) {
			return false
		}
		if page.Search == nil || *page.Search == "" {
			return true
		}
		s := strings.ToLower(*page.Search)
		return strings.Contains(strings.ToLower(d.Filename), s) ||
			strings.Contains(strings.ToLower(d.Justification), s)
	})

	sortDocuments(docs, page.Sort)

	result := pagination.Paginate(docs, page)
	return &result, nil
}

func (m *memory) Unreviewed(ctx context.Context, requestID uuid.UUID) ([]Document, error) {
	return m.filter(requestID, func(d *Document) bool { return !d.Reviewed() }), nil
}

func (m *memory) Reviewed(ctx context.Context, requestID uuid.UUID) ([]Document, error) {
	return m.filter(requestID, func(d *Document) bool { return d.Reviewed() }), nil
}

func (m *memory) ByClassification(ctx context.Context, requestID uuid.UUID, label string) ([]Document, error) {
	return m.filter(requestID, func(d *Document) bool {
		return d.Classification == label || d.HumanDecision == label
	}), nil
}

func (m *memory) Review(ctx context.Context, cmd ReviewCommand) (*Document, error) {
	if !ValidDecision(cmd.Decision) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, cmd.Decision)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.requests[cmd.RequestID][cmd.Filename]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	d.HumanDecision = cmd.Decision
	d.HumanFeedback = cmd.Feedback
	d.ReviewedAt = &now
	d.UpdatedAt = now
	m.requests[cmd.RequestID][cmd.Filename] = d

	m.logger.Info(
		"document reviewed",
		"request_id", cmd.RequestID,
		"filename", cmd.Filename,
		"decision", cmd.Decision,
	)
	return &d, nil
}

func (m *memory) Count(ctx context.Context, requestID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests[requestID]), nil
}

func (m *memory) Statistics(ctx context.Context, requestID uuid.UUID) (Statistics, error) {
	return Tally(m.filter(requestID, nil)), nil
}

func (m *memory) Clear(ctx context.Context, requestID uuid.UUID) error {
	m.mu.Lock()
	n := len(m.requests[requestID])
	delete(m.requests, requestID)
	m.mu.Unlock()

	m.logger.Info("documents cleared", "request_id", requestID, "count", n)
	return nil
}

// filter returns copies of the matching documents sorted by filename.
func (m *memory) filter(requestID uuid.UUID, keep func(*Document) bool) []Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.requests[requestID]))
	for _, d := range m.requests[requestID] {
		if keep == nil || keep(&d) {
			docs = append(docs, d)
		}
	}
	slices.SortFunc(docs, func(a, b Document) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return docs
}

var comparators = map[string]func(a, b *Document) int{
	"Filename":       func(a, b *Document) int { return strings.Compare(a.Filename, b.Filename) },
	"Classification": func(a, b *Document) int { return strings.Compare(a.Classification, b.Classification) },
	"Confidence":     func(a, b *Document) int { return cmp.Compare(a.Confidence, b.Confidence) },
	"CreatedAt":      func(a, b *Document) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"UpdatedAt":      func(a, b *Document) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// sortDocuments applies the sort fields the memory store supports, in order.
// Unknown fields are ignored, leaving filename order.
func sortDocuments(docs []Document, fields []query.SortField) {
	if len(fields) == 0 {
		return
	}
	slices.SortStableFunc(docs, func(a, b Document) int {
		for _, f := range fields {
			compare, ok := comparators[f.Field]
			if !ok {
				continue
			}
			c := compare(&a, &b)
			if f.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}
