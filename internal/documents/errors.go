package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docket/pkg/repository"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicate       = errors.New("document already exists")
	ErrInvalidDecision = errors.New("invalid review decision")
	ErrInvalidRequest  = errors.New("invalid request id")
)

// MapHTTPStatus maps document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidDecision),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, repository.ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
