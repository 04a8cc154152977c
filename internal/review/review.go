// Package review records human decisions on processed documents. A
// decision that disagrees with the classifier becomes feedback for later
// classification calls in the same request.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/feedback"
)

var (
	ErrInvalidDecision = errors.New("decision must be responsive, non_responsive, or uncertain")
	ErrInvalidRequest  = errors.New("invalid request id")
)

// MapHTTPStatus maps review errors, including the document errors a
// review can surface, to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidDecision) || errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return documents.MapHTTPStatus(err)
}

// Trail is the subset of the audit sink a review writes to.
type Trail interface {
	LogReview(ctx context.Context, requestID uuid.UUID, filename, aiResult, decision string) error
	LogView(ctx context.Context, requestID uuid.UUID, filename, location string) error
	LogExport(ctx context.Context, requestID uuid.UUID, format string, count int, selected []string) error
}

// Decision is a reviewer's verdict on one document.
type Decision struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// Outcome is the result of a submitted decision.
type Outcome struct {
	Document documents.Document `json:"document"`
	Override bool               `json:"override"`
	Feedback *feedback.Entry    `json:"feedback,omitempty"`
}

// Service applies reviewer decisions across the document, feedback and
// audit stores.
type Service struct {
	docs     documents.System
	feedback *feedback.Store
	trail    Trail
	logger   *slog.Logger
}

func New(docs documents.System, fb *feedback.Store, trail Trail, logger *slog.Logger) *Service {
	return &Service{
		docs:     docs,
		feedback: fb,
		trail:    trail,
		logger:   logger.With("system", "review"),
	}
}

// Submit validates the decision, records feedback when it disagrees with
// the classifier, stores the human fields and audits the review.
func (s *Service) Submit(ctx context.Context, requestID uuid.UUID, filename string, d Decision) (*Outcome, error) {
	if !documents.ValidDecision(d.Decision) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, d.Decision)
	}

	doc, err := s.docs.Find(ctx, requestID, filename)
	if err != nil {
		return nil, err
	}

	entry, override, err := s.feedback.Add(ctx, doc, requestID, d.Decision)
	if err != nil {
		return nil, err
	}

	updated, err := s.docs.Review(ctx, documents.ReviewCommand{
		RequestID: requestID,
		Filename:  filename,
		Decision:  d.Decision,
		Feedback:  d.Note,
	})
	if err != nil {
		return nil, err
	}

	if err := s.trail.LogReview(ctx, requestID, filename, doc.Classification, d.Decision); err != nil {
		s.logger.Warn("review event not recorded", "filename", filename, "error", err)
	}

	return &Outcome{Document: *updated, Override: override, Feedback: entry}, nil
}

// View records that a document was opened at location.
func (s *Service) View(ctx context.Context, requestID uuid.UUID, filename, location string) error {
	return s.trail.LogView(ctx, requestID, filename, location)
}

// LogView satisfies documents.ViewLogger.
func (s *Service) LogView(ctx context.Context, requestID uuid.UUID, filename, location string) error {
	return s.View(ctx, requestID, filename, location)
}

// Export returns the reviewed documents of a request, restricted to
// filenames when any are given, and audits the export.
func (s *Service) Export(ctx context.Context, requestID uuid.UUID, filenames []string) ([]documents.Document, error) {
	reviewed, err := s.docs.Reviewed(ctx, requestID)
	if err != nil {
		return nil, err
	}

	selected := reviewed
	if len(filenames) > 0 {
		keep := make(map[string]bool, len(filenames))
		for _, f := range filenames {
			keep[f] = true
		}
		selected = make([]documents.Document, 0, len(filenames))
		for _, d := range reviewed {
			if keep[d.Filename] {
				selected = append(selected, d)
			}
		}
	}

	names := make([]string, len(selected))
	for i, d := range selected {
		names[i] = d.Filename
	}
	if err := s.trail.LogExport(ctx, requestID, "json", len(selected), names); err != nil {
		s.logger.Warn("export event not recorded", "request_id", requestID, "error", err)
	}

	return selected, nil
}

// Feedback returns the request's corrections and their statistics.
func (s *Service) Feedback(ctx context.Context, requestID uuid.UUID) (*FeedbackSummary, error) {
	entries, err := s.feedback.Snapshot(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return &FeedbackSummary{
		Statistics: feedback.Summarize(entries),
		Entries:    entries,
	}, nil
}

// FeedbackSummary pairs feedback statistics with the entries behind them.
type FeedbackSummary struct {
	Statistics feedback.Statistics `json:"statistics"`
	Entries    []feedback.Entry    `json:"entries"`
}
