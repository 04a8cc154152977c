package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/pagination"
)

// Store persists audit events. Events are listed in the order they were
// appended unless the page request sorts otherwise.
type Store interface {
	// Append assigns the event an id and sequence number and stores it.
	Append(ctx context.Context, e Event) (Event, error)

	List(
		ctx context.Context,
		requestID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Event], error)

	// All returns every matching event in append order.
	All(ctx context.Context, requestID uuid.UUID, filters Filters) ([]Event, error)

	Clear(ctx context.Context, requestID uuid.UUID) error
}
