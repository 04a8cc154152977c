package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Trail is the Sink that formats events and appends them to a Store.
type Trail struct {
	store  Store
	logger *slog.Logger
}

func NewTrail(store Store, logger *slog.Logger) *Trail {
	return &Trail{
		store:  store,
		logger: logger.With("system", "audit"),
	}
}

func (t *Trail) Store() Store { return t.store }

func (t *Trail) LogClassification(ctx context.Context, requestID uuid.UUID, filename, result string, confidence float64) error {
	return t.append(ctx, Event{
		Type:      TypeClassify,
		RequestID: requestID,
		Filename:  filename,
		AIResult:  result,
		Details:   classificationDetails(confidence),
	})
}

func (t *Trail) LogReview(ctx context.Context, requestID uuid.UUID, filename, aiResult, decision string) error {
	return t.append(ctx, Event{
		Type:         TypeReview,
		RequestID:    requestID,
		Filename:     filename,
		AIResult:     aiResult,
		UserDecision: decision,
		Details:      reviewDetails(aiResult, decision),
	})
}

func (t *Trail) LogView(ctx context.Context, requestID uuid.UUID, filename, location string) error {
	return t.append(ctx, Event{
		Type:      TypeView,
		RequestID: requestID,
		Filename:  filename,
		Details:   viewDetails(location),
	})
}

func (t *Trail) LogExport(ctx context.Context, requestID uuid.UUID, format string, count int, selected []string) error {
	return t.append(ctx, Event{
		Type:      TypeExport,
		RequestID: requestID,
		Details:   exportDetails(format, count, selected),
	})
}

func (t *Trail) LogError(ctx context.Context, requestID uuid.UUID, filename, message string) error {
	return t.append(ctx, Event{
		Type:      TypeError,
		RequestID: requestID,
		Filename:  filename,
		Details:   errorDetails(message),
	})
}

func (t *Trail) LogEmbedding(ctx context.Context, requestID uuid.UUID, filename string, success bool, elapsed time.Duration, message string) error {
	return t.append(ctx, Event{
		Type:      TypeEmbedding,
		RequestID: requestID,
		Filename:  filename,
		Details:   embeddingDetails(success, elapsed, message),
	})
}

func (t *Trail) LogDuplicate(ctx context.Context, requestID uuid.UUID, filename string, isDuplicate bool, duplicateOf string, similarity float64) error {
	return t.append(ctx, Event{
		Type:      TypeDuplicate,
		RequestID: requestID,
		Filename:  filename,
		Details:   duplicateDetails(isDuplicate, duplicateOf, similarity),
	})
}

func (t *Trail) append(ctx context.Context, e Event) error {
	if _, err := t.store.Append(ctx, e); err != nil {
		return fmt.Errorf("record %s event: %w", e.Type, err)
	}
	t.logger.Debug("audit event", "type", e.Type, "request_id", e.RequestID, "filename", e.Filename)
	return nil
}
