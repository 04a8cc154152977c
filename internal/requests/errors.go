package requests

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docket/pkg/repository"
)

var (
	ErrNotFound      = errors.New("request not found")
	ErrInvalidID     = errors.New("invalid request id")
	ErrDuplicate     = errors.New("request name already exists")
	ErrInvalidStatus = errors.New("status must be draft, processing, review, or complete")
	ErrNameRequired  = errors.New("request name is required")
	ErrTextRequired  = errors.New("request text is required")
)

// MapHTTPStatus maps request errors to HTTP status codes. Writes rejected
// by a table constraint are client errors.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrTextRequired),
		errors.Is(err, repository.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
