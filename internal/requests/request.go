// Package requests implements the FOIA request domain for docket. A
// request is the isolation boundary for every other store: documents,
// fingerprints, feedback and audit events are all scoped to its id.
package requests

import (
	"time"

	"github.com/google/uuid"
)

// Request is a FOIA request and the text documents are judged against.
type Request struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Text        string     `json:"text"`
	Status      Status     `json:"status"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateCommand carries the data needed to create a request.
type CreateCommand struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Text        string     `json:"text"`
	Deadline    *time.Time `json:"deadline"`
}

// UpdateCommand replaces the editable fields of a request.
type UpdateCommand struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	Text        string     `json:"text"`
	Deadline    *time.Time `json:"deadline"`
}

// StatusCommand moves a request to a new status.
type StatusCommand struct {
	Status Status `json:"status"`
}

func validate(name, text string) error {
	if name == "" {
		return ErrNameRequired
	}
	if text == "" {
		return ErrTextRequired
	}
	return nil
}
