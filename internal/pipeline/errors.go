package pipeline

import (
	"errors"
	"net/http"
)

var (
	// ErrNoDocuments is returned before any worker starts when a job has
	// nothing to process.
	ErrNoDocuments = errors.New("no documents to process")
	// ErrRunInProgress rejects a run for a request that is already running.
	ErrRunInProgress = errors.New("processing already in progress for request")
	// ErrNoSource indicates a job without a document source.
	ErrNoSource = errors.New("job has no document source")
)

// MapHTTPStatus maps pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrRunInProgress) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNoDocuments) || errors.Is(err, ErrNoSource) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
