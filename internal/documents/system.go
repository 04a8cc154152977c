package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
)

// System defines the public contract for document domain operations.
// Every operation is scoped to a single request.
type System interface {
	// Save inserts doc or replaces the record with the same request and filename.
	Save(ctx context.Context, doc Document) error

	Find(ctx context.Context, requestID uuid.UUID, filename string) (*Document, error)

	List(
		ctx context.Context,
		requestID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Unreviewed(ctx context.Context, requestID uuid.UUID) ([]Document, error)
	Reviewed(ctx context.Context, requestID uuid.UUID) ([]Document, error)

	// ByClassification returns documents whose classification or human
	// decision equals label.
	ByClassification(ctx context.Context, requestID uuid.UUID, label string) ([]Document, error)

	Review(ctx context.Context, cmd ReviewCommand) (*Document, error)
	Count(ctx context.Context, requestID uuid.UUID) (int, error)
	Statistics(ctx context.Context, requestID uuid.UUID) (Statistics, error)
	Clear(ctx context.Context, requestID uuid.UUID) error
}
