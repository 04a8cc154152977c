// Package handlers provides shared HTTP request and response helpers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes err as {"error": "..."}. Server errors log at error
// level; client errors log at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	level := slog.LevelWarn
	msg := "request rejected"
	if status >= http.StatusInternalServerError {
		level, msg = slog.LevelError, "request failed"
	}
	logger.Log(context.Background(), level, msg, "status", status, "error", err)

	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON decodes the request body into v. On failure it writes the
// error response and returns false: 413 when the body exceeded the limit
// set by middleware.MaxBytes, 400 for anything else.
func DecodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondError(w, logger, http.StatusRequestEntityTooLarge,
			fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}

	RespondError(w, logger, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	return false
}

// PathUUID parses the named path value as a UUID. When it does not parse,
// invalid is written as a 400 and ok is false.
func PathUUID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string, invalid error) (id uuid.UUID, ok bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, invalid)
		return uuid.Nil, false
	}
	return id, true
}
