package documents

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a Postgres-backed document repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

const upsertSQL = `
	INSERT INTO documents(
		request_id, filename, content, content_hash, embedding_generated,
		is_duplicate, duplicate_of, similarity_score, classification, confidence,
		justification, exemptions, human_decision, human_feedback, errored,
		error, processing_ms, reviewed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (request_id, filename) DO UPDATE SET
		content = EXCLUDED.content,
		content_hash = EXCLUDED.content_hash,
		embedding_generated = EXCLUDED.embedding_generated,
		is_duplicate = EXCLUDED.is_duplicate,
		duplicate_of = EXCLUDED.duplicate_of,
		similarity_score = EXCLUDED.similarity_score,
		classification = EXCLUDED.classification,
		confidence = EXCLUDED.confidence,
		justification = EXCLUDED.justification,
		exemptions = EXCLUDED.exemptions,
		human_decision = EXCLUDED.human_decision,
		human_feedback = EXCLUDED.human_feedback,
		errored = EXCLUDED.errored,
		error = EXCLUDED.error,
		processing_ms = EXCLUDED.processing_ms,
		reviewed_at = EXCLUDED.reviewed_at,
		updated_at = NOW()`

func (r *repo) Save(ctx context.Context, doc Document) error {
	exemptions, err := encodeExemptions(&doc)
	if err != nil {
		return fmt.Errorf("encode exemptions: %w", err)
	}

	_, err = r.db.ExecContext(
		ctx, upsertSQL,
		doc.RequestID,
		doc.Filename,
		doc.Content,
		doc.ContentHash,
		doc.EmbeddingGenerated,
		doc.IsDuplicate,
		doc.DuplicateOf,
		doc.SimilarityScore,
		doc.Classification,
		doc.Confidence,
		doc.Justification,
		exemptions,
		doc.HumanDecision,
		doc.HumanFeedback,
		doc.Errored,
		doc.Error,
		doc.ProcessingTime.Milliseconds(),
		doc.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.Filename, err)
	}
	return nil
}

func (r *repo) Find(ctx context.Context, requestID uuid.UUID, filename string) (*Document, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("RequestID", requestID).
		WhereEquals("Filename", filename).
		BuildFirst()

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) List(
	ctx context.Context,
	requestID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("RequestID", requestID).
		WhereSearch(page.Search, "Filename", "Justification")

	filters.Apply(qb)

	result, err := repository.QueryPage(ctx, r.db, qb, page, r.pagination, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

func (r *repo) Unreviewed(ctx context.Context, requestID uuid.UUID) ([]Document, error) {
	reviewed := false
	return r.all(ctx, requestID, Filters{Reviewed: &reviewed})
}

func (r *repo) Reviewed(ctx context.Context, requestID uuid.UUID) ([]Document, error) {
	reviewed := true
	return r.all(ctx, requestID, Filters{Reviewed: &reviewed})
}

func (r *repo) ByClassification(ctx context.Context, requestID uuid.UUID, label string) ([]Document, error) {
	return r.all(ctx, requestID, Filters{Classification: &label})
}

func (r *repo) all(ctx context.Context, requestID uuid.UUID, filters Filters) ([]Document, error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("RequestID", requestID)

	filters.Apply(qb)

	q, args := qb.Build()
	docs, err := repository.QueryMany(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return docs, nil
}

func (r *repo) Review(ctx context.Context, cmd ReviewCommand) (*Document, error) {
	if !ValidDecision(cmd.Decision) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, cmd.Decision)
	}

	q := fmt.Sprintf(`
		UPDATE documents d
		SET human_decision = $3, human_feedback = $4, reviewed_at = $5, updated_at = NOW()
		WHERE d.request_id = $1 AND d.filename = $2
		RETURNING %s`, projection.Columns())

	args := []any{cmd.RequestID, cmd.Filename, cmd.Decision, cmd.Feedback, time.Now().UTC()}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, args, scanDocument)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"document reviewed",
		"request_id", cmd.RequestID,
		"filename", cmd.Filename,
		"decision", cmd.Decision,
	)
	return &d, nil
}

func (r *repo) Count(ctx context.Context, requestID uuid.UUID) (int, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("RequestID", requestID).
		BuildCount()

	n, err := repository.QueryScalar[int](ctx, r.db, q, args...)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

const statisticsSQL = `
	SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE human_decision <> ''),
		COUNT(*) FILTER (WHERE COALESCE(NULLIF(human_decision, ''), classification) = 'responsive'),
		COUNT(*) FILTER (WHERE COALESCE(NULLIF(human_decision, ''), classification) = 'non_responsive'),
		COUNT(*) FILTER (WHERE COALESCE(NULLIF(human_decision, ''), classification) = 'uncertain'),
		COUNT(*) FILTER (WHERE is_duplicate),
		COUNT(*) FILTER (WHERE errored),
		COUNT(*) FILTER (WHERE jsonb_array_length(exemptions) > 0),
		COUNT(*) FILTER (WHERE human_decision <> '' AND human_decision = classification)
	FROM documents
	WHERE request_id = $1`

func (r *repo) Statistics(ctx context.Context, requestID uuid.UUID) (Statistics, error) {
	var s Statistics
	err := r.db.QueryRowContext(ctx, statisticsSQL, requestID).Scan(
		&s.Total,
		&s.Reviewed,
		&s.Responsive,
		&s.NonResponsive,
		&s.Uncertain,
		&s.Duplicates,
		&s.Errors,
		&s.WithExemptions,
		&s.Agreed,
	)
	if err != nil {
		return s, fmt.Errorf("document statistics: %w", err)
	}
	s.rate()
	return s, nil
}

func (r *repo) Clear(ctx context.Context, requestID uuid.UUID) error {
	n, err := repository.ExecCount(ctx, r.db, "DELETE FROM documents WHERE request_id = $1", requestID)
	if err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}

	r.logger.Info("documents cleared", "request_id", requestID, "count", n)
	return nil
}
