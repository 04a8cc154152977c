package requests

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/routes"
)

// Cleaner removes everything other stores hold for a deleted request.
type Cleaner interface {
	Clear(ctx context.Context, id uuid.UUID) error
}

// Handler provides HTTP endpoints for request operations.
type Handler struct {
	sys        System
	cleaner    Cleaner
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler. cleaner may be nil.
func NewHandler(
	sys System,
	cleaner Cleaner,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		cleaner:    cleaner,
		logger:     logger.With("handler", "requests"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for request endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/requests",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/statuses", Handler: h.Statuses},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "PUT", Pattern: "/{id}/status", Handler: h.UpdateStatus},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of requests with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Statuses returns the valid request statuses.
func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Statuses())
}

// Find returns a single request by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	req, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, req)
}

// Create processes a JSON body to create a new draft request.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if !handlers.DecodeJSON(w, r, h.logger, &cmd) {
		return
	}

	req, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, req)
}

// Update processes a JSON body to replace a request's editable fields.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	var cmd UpdateCommand
	if !handlers.DecodeJSON(w, r, h.logger, &cmd) {
		return
	}

	req, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, req)
}

// UpdateStatus moves a request to the status in the JSON body.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	var cmd StatusCommand
	if !handlers.DecodeJSON(w, r, h.logger, &cmd) {
		return
	}

	req, err := h.sys.UpdateStatus(r.Context(), id, cmd.Status)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, req)
}

// Delete removes a request and clears its documents, fingerprints,
// feedback and audit trail.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidID)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if h.cleaner != nil {
		if err := h.cleaner.Clear(r.Context(), id); err != nil {
			handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
