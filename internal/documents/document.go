// Package documents implements the document domain for docket.
// It provides the per-request document record produced by processing,
// the human review fields layered on top of it, and memory and Postgres
// stores for both.
package documents

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/exemptions"
)

// Classification labels.
const (
	Responsive    = "responsive"
	NonResponsive = "non_responsive"
	Uncertain     = "uncertain"
	Duplicate     = "duplicate"
)

// Decisions are the labels a classifier or reviewer may assign.
var Decisions = []string{Responsive, NonResponsive, Uncertain}

// ValidDecision reports whether label is one of Decisions.
func ValidDecision(label string) bool {
	return slices.Contains(Decisions, label)
}

// Document is a single file processed for a request. Filename is unique
// within RequestID. An empty Classification means the document has not
// been classified.
type Document struct {
	RequestID          uuid.UUID              `json:"request_id"`
	Filename           string                 `json:"filename"`
	Content            string                 `json:"content"`
	ContentHash        string                 `json:"content_hash"`
	EmbeddingGenerated bool                   `json:"embedding_generated"`
	IsDuplicate        bool                   `json:"is_duplicate"`
	DuplicateOf        string                 `json:"duplicate_of,omitempty"`
	SimilarityScore    float64                `json:"similarity_score,omitempty"`
	Classification     string                 `json:"classification"`
	Confidence         float64                `json:"confidence"`
	Justification      string                 `json:"justification"`
	Exemptions         []exemptions.Exemption `json:"exemptions"`
	HumanDecision      string                 `json:"human_decision,omitempty"`
	HumanFeedback      string                 `json:"human_feedback,omitempty"`
	Errored            bool                   `json:"errored"`
	Error              string                 `json:"error,omitempty"`
	ProcessingTime     time.Duration          `json:"processing_time"`
	ReviewedAt         *time.Time             `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// Reviewed reports whether a human decision has been recorded.
func (d *Document) Reviewed() bool {
	return d.HumanDecision != ""
}

// Label returns the human decision when present, otherwise the classification.
func (d *Document) Label() string {
	if d.HumanDecision != "" {
		return d.HumanDecision
	}
	return d.Classification
}

// ReviewCommand records a human decision on a processed document.
type ReviewCommand struct {
	RequestID uuid.UUID
	Filename  string
	Decision  string
	Feedback  string
}

// Statistics summarizes the documents of a request. Label counts use the
// human decision when one exists.
type Statistics struct {
	Total          int     `json:"total"`
	Reviewed       int     `json:"reviewed"`
	Responsive     int     `json:"responsive"`
	NonResponsive  int     `json:"non_responsive"`
	Uncertain      int     `json:"uncertain"`
	Duplicates     int     `json:"duplicates"`
	Errors         int     `json:"errors"`
	WithExemptions int     `json:"with_exemptions"`
	Agreed         int     `json:"agreed"`
	AgreementRate  float64 `json:"agreement_rate"`
}

// Tally computes Statistics over docs.
func Tally(docs []Document) Statistics {
	var s Statistics
	for i := range docs {
		d := &docs[i]
		s.Total++
		if d.Reviewed() {
			s.Reviewed++
			if d.HumanDecision == d.Classification {
				s.Agreed++
			}
		}
		switch d.Label() {
		case Responsive:
			s.Responsive++
		case NonResponsive:
			s.NonResponsive++
		case Uncertain:
			s.Uncertain++
		}
		if d.IsDuplicate {
			s.Duplicates++
		}
		if d.Errored {
			s.Errors++
		}
		if len(d.Exemptions) > 0 {
			s.WithExemptions++
		}
	}
	s.rate()
	return s
}

func (s *Statistics) rate() {
	if s.Reviewed > 0 {
		s.AgreementRate = float64(s.Agreed) / float64(s.Reviewed)
	}
}
