package requests

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
)

// System defines the public contract for request domain operations.
type System interface {
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Request], error)

	Find(ctx context.Context, id uuid.UUID) (*Request, error)
	Create(ctx context.Context, cmd CreateCommand) (*Request, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Request, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
