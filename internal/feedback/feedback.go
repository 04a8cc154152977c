// Package feedback records reviewer corrections of classifier output so
// later classification runs on the same request can learn from them.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/documents"
)

// SnippetLength is the number of runes of document content kept with each entry.
const SnippetLength = 200

// Entry is a single reviewer correction.
type Entry struct {
	Filename               string    `json:"filename"`
	RequestID              uuid.UUID `json:"request_id"`
	OriginalClassification string    `json:"original_classification"`
	HumanDecision          string    `json:"human_decision"`
	OriginalConfidence     float64   `json:"original_confidence"`
	Snippet                string    `json:"snippet"`
	Timestamp              time.Time `json:"timestamp"`
}

// Pattern renders the correction as "original → decision".
func (e Entry) Pattern() string {
	return fmt.Sprintf("%s → %s", e.OriginalClassification, e.HumanDecision)
}

// PatternCount is the number of corrections sharing one pattern.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// Statistics summarizes corrections for a request. Counts are in the order
// each pattern was first seen.
type Statistics struct {
	TotalCorrections int            `json:"total_corrections"`
	MostCorrected    string         `json:"most_corrected_type"`
	Counts           []PatternCount `json:"correction_counts"`
}

// Patterns tallies entries by correction pattern in first-seen order.
func Patterns(entries []Entry) []PatternCount {
	counts := make([]PatternCount, 0)
	index := make(map[string]int)
	for _, e := range entries {
		p := e.Pattern()
		if i, ok := index[p]; ok {
			counts[i].Count++
			continue
		}
		index[p] = len(counts)
		counts = append(counts, PatternCount{Pattern: p, Count: 1})
	}
	return counts
}

// Repository persists corrections. Entries returns a request's corrections
// in the order they were appended.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	Entries(ctx context.Context, requestID uuid.UUID) ([]Entry, error)
	Clear(ctx context.Context, requestID uuid.UUID) (int, error)
}

// Store records corrections and summarizes them per request.
type Store struct {
	repo   Repository
	logger *slog.Logger
}

// New creates a Store over repo.
func New(repo Repository, logger *slog.Logger) *Store {
	return &Store{
		repo:   repo,
		logger: logger.With("system", "feedback"),
	}
}

// Add records a correction when decision differs from the document's
// classification. It reports false and records nothing on agreement.
func (s *Store) Add(ctx context.Context, doc *documents.Document, requestID uuid.UUID, decision string) (*Entry, bool, error) {
	if doc.Classification == decision {
		return nil, false, nil
	}

	original := doc.Classification
	if original == "" {
		original = documents.Uncertain
	}

	entry := Entry{
		Filename:               doc.Filename,
		RequestID:              requestID,
		OriginalClassification: original,
		HumanDecision:          decision,
		OriginalConfidence:     doc.Confidence,
		Snippet:                snippet(doc.Content),
		Timestamp:              time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, false, fmt.Errorf("record feedback: %w", err)
	}

	s.logger.Info(
		"feedback recorded",
		"request_id", requestID,
		"filename", doc.Filename,
		"correction", entry.Pattern(),
	)
	return &entry, true, nil
}

// Snapshot returns the request's corrections in insertion order. The slice
// is the caller's to keep.
func (s *Store) Snapshot(ctx context.Context, requestID uuid.UUID) ([]Entry, error) {
	entries, err := s.repo.Entries(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load feedback: %w", err)
	}
	return entries, nil
}

func (s *Store) Statistics(ctx context.Context, requestID uuid.UUID) (Statistics, error) {
	entries, err := s.Snapshot(ctx, requestID)
	if err != nil {
		return Statistics{}, err
	}
	return Summarize(entries), nil
}

func (s *Store) Clear(ctx context.Context, requestID uuid.UUID) error {
	n, err := s.repo.Clear(ctx, requestID)
	if err != nil {
		return fmt.Errorf("clear feedback: %w", err)
	}

	if n > 0 {
		s.logger.Info("feedback cleared", "request_id", requestID, "count", n)
	}
	return nil
}

// Summarize computes statistics over entries. Ties for the most corrected
// pattern go to the one seen first.
func Summarize(entries []Entry) Statistics {
	if len(entries) == 0 {
		return Statistics{MostCorrected: "N/A", Counts: []PatternCount{}}
	}

	counts := Patterns(entries)
	most := counts[0]
	for _, c := range counts[1:] {
		if c.Count > most.Count {
			most = c
		}
	}

	return Statistics{
		TotalCorrections: len(entries),
		MostCorrected:    most.Pattern,
		Counts:           counts,
	}
}

func snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLength {
		return content
	}
	return string(runes[:SnippetLength]) + "..."
}
