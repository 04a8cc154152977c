package requests

import (
	"net/url"
	"strings"

	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "requests", "r").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("text", "Text").
	Project("status", "Status").
	Project("deadline", "Deadline").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for request queries.
// Status uses exact matching; Name uses case-insensitive contains matching.
type Filters struct {
	Status *Status `json:"status,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Name", f.Name)
}

// Match reports whether r satisfies every non-nil filter.
func (f Filters) Match(r *Request) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.Name != nil && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(*f.Name)) {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unknown status values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		if status, err := ParseStatus(s); err == nil {
			f.Status = &status
		}
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	return f
}

func scanRequest(s repository.Scanner) (Request, error) {
	var r Request
	err := s.Scan(
		&r.ID,
		&r.Name,
		&r.Description,
		&r.Text,
		&r.Status,
		&r.Deadline,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
