package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sink receives audit events.
type Sink interface {
	LogClassification(ctx context.Context, requestID uuid.UUID, filename, result string, confidence float64) error
	LogReview(ctx context.Context, requestID uuid.UUID, filename, aiResult, decision string) error
	LogView(ctx context.Context, requestID uuid.UUID, filename, location string) error
	LogExport(ctx context.Context, requestID uuid.UUID, format string, count int, selected []string) error
	LogError(ctx context.Context, requestID uuid.UUID, filename, message string) error
	LogEmbedding(ctx context.Context, requestID uuid.UUID, filename string, success bool, elapsed time.Duration, message string) error
	LogDuplicate(ctx context.Context, requestID uuid.UUID, filename string, isDuplicate bool, duplicateOf string, similarity float64) error
}

// ErrUnknownType is returned for a Record whose Type has no Sink method.
var ErrUnknownType = errors.New("unknown audit event type")

// Relay forwards buffered records to a Sink.
type Relay struct {
	sink   Sink
	logger *slog.Logger
}

func NewRelay(sink Sink, logger *slog.Logger) *Relay {
	return &Relay{
		sink:   sink,
		logger: logger.With("system", "audit-relay"),
	}
}

// Replay sends each record to the matching Sink method in order. A failed
// record is logged and skipped; the joined failures are returned.
func (r *Relay) Replay(ctx context.Context, records []Record) error {
	var errs []error
	for _, rec := range records {
		if err := r.send(ctx, rec); err != nil {
			r.logger.Warn(
				"audit event dropped",
				"type", rec.Type,
				"request_id", rec.RequestID,
				"filename", rec.Filename,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Relay) send(ctx context.Context, rec Record) error {
	switch rec.Type {
	case TypeClassify:
		return r.sink.LogClassification(ctx, rec.RequestID, rec.Filename, rec.Result, rec.Confidence)
	case TypeError:
		return r.sink.LogError(ctx, rec.RequestID, rec.Filename, rec.Message)
	case TypeEmbedding:
		return r.sink.LogEmbedding(ctx, rec.RequestID, rec.Filename, rec.Success, rec.Elapsed, rec.Message)
	case TypeDuplicate:
		return r.sink.LogDuplicate(ctx, rec.RequestID, rec.Filename, rec.IsDuplicate, rec.DuplicateOf, rec.Similarity)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, rec.Type)
	}
}
