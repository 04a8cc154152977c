package documents

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("request_id", "RequestID").
	Project("filename", "Filename").
	Project("content", "Content").
	Project("content_hash", "ContentHash").
	Project("embedding_generated", "EmbeddingGenerated").
	Project("is_duplicate", "IsDuplicate").
	Project("duplicate_of", "DuplicateOf").
	Project("similarity_score", "SimilarityScore").
	Project("classification", "Classification").
	Project("confidence", "Confidence").
	Project("justification", "Justification").
	Project("exemptions", "Exemptions").
	Project("human_decision", "HumanDecision").
	Project("human_feedback", "HumanFeedback").
	Project("errored", "Errored").
	Project("error", "Error").
	Project("processing_ms", "ProcessingTime").
	Project("reviewed_at", "ReviewedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "Filename"}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Classification matches either the model label or
// the human decision. Filename uses case-insensitive contains matching.
type Filters struct {
	Classification *string `json:"classification,omitempty"`
	Filename       *string `json:"filename,omitempty"`
	Reviewed       *bool   `json:"reviewed,omitempty"`
	Duplicate      *bool   `json:"duplicate,omitempty"`
	Errored        *bool   `json:"errored,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var classification *string
	if f.Classification != nil && *f.Classification != "" {
		classification = f.Classification
	}

	var unreviewed *bool
	if f.Reviewed != nil {
		v := !*f.Reviewed
		unreviewed = &v
	}

	return b.
		WhereAnyEquals(classification, "Classification", "HumanDecision").
		WhereEmpty("HumanDecision", unreviewed).
		WhereContains("Filename", f.Filename).
		WhereEquals("IsDuplicate", f.Duplicate).
		WhereEquals("Errored", f.Errored)
}

// Match reports whether d satisfies every non-nil filter.
func (f Filters) Match(d *Document) bool {
	if f.Classification != nil && *f.Classification != "" {
		if d.Classification != *f.Classification && d.HumanDecision != *f.Classification {
			return false
		}
	}
	if f.Filename != nil && *f.Filename != "" {
		if !strings.Contains(strings.ToLower(d.Filename), strings.ToLower(*f.Filename)) {
			return false
		}
	}
	if f.Reviewed != nil && d.Reviewed() != *f.Reviewed {
		return false
	}
	if f.Duplicate != nil && d.IsDuplicate != *f.Duplicate {
		return false
	}
	if f.Errored != nil && d.Errored != *f.Errored {
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("classification"); c != "" {
		f.Classification = &c
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	f.Reviewed = parseBool(values.Get("reviewed"))
	f.Duplicate = parseBool(values.Get("duplicate"))
	f.Errored = parseBool(values.Get("errored"))

	return f
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d          Document
		exemptions []byte
		ms         int64
	)
	err := s.Scan(
		&d.RequestID,
		&d.Filename,
		&d.Content,
		&d.ContentHash,
		&d.EmbeddingGenerated,
		&d.IsDuplicate,
		&d.DuplicateOf,
		&d.SimilarityScore,
		&d.Classification,
		&d.Confidence,
		&d.Justification,
		&exemptions,
		&d.HumanDecision,
		&d.HumanFeedback,
		&d.Errored,
		&d.Error,
		&ms,
		&d.ReviewedAt,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	d.ProcessingTime = time.Duration(ms) * time.Millisecond
	if len(exemptions) > 0 {
		if err := json.Unmarshal(exemptions, &d.Exemptions); err != nil {
			return d, err
		}
	}
	return d, nil
}

func encodeExemptions(d *Document) ([]byte, error) {
	if d.Exemptions == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Exemptions)
}
