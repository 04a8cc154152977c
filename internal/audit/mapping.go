package audit

import (
	"net/url"
	"slices"

	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "audit_events", "a").
	Project("id", "ID").
	Project("seq", "Seq").
	Project("event_type", "Type").
	Project("request_id", "RequestID").
	Project("filename", "Filename").
	Project("details", "Details").
	Project("ai_result", "AIResult").
	Project("user_decision", "UserDecision").
	Project("timestamp", "Timestamp")

var defaultSort = query.SortField{Field: "Seq"}

// Filters narrows an audit listing. An empty Filenames matches every
// document, including request-level events.
type Filters struct {
	Type      *string  `json:"type,omitempty"`
	Filenames []string `json:"filenames,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	names := make([]any, len(f.Filenames))
	for i, n := range f.Filenames {
		names[i] = n
	}
	return b.
		WhereEquals("Type", f.Type).
		WhereIn("Filename", names)
}

func (f Filters) Match(e *Event) bool {
	if f.Type != nil && *f.Type != "" && e.Type != *f.Type {
		return false
	}
	if len(f.Filenames) > 0 && !slices.Contains(f.Filenames, e.Filename) {
		return false
	}
	return true
}

// FiltersFromQuery reads "type" and repeated "filename" parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if t := values.Get("type"); t != "" {
		f.Type = &t
	}
	for _, n := range values["filename"] {
		if n != "" {
			f.Filenames = append(f.Filenames, n)
		}
	}
	return f
}

func scanEvent(s repository.Scanner) (Event, error) {
	var e Event
	err := s.Scan(
		&e.ID,
		&e.Seq,
		&e.Type,
		&e.RequestID,
		&e.Filename,
		&e.Details,
		&e.AIResult,
		&e.UserDecision,
		&e.Timestamp,
	)
	return e, err
}
