package documents

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/routes"
)

// ViewLogger records that a document was opened.
type ViewLogger interface {
	LogView(ctx context.Context, requestID uuid.UUID, filename, location string) error
}

// Handler provides HTTP endpoints for processed documents.
type Handler struct {
	sys        System
	views      ViewLogger
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler. views may be nil.
func NewHandler(
	sys System,
	views ViewLogger,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		views:      views,
		logger:     logger.With("handler", "documents"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/requests/{id}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/documents", Handler: h.List},
			{Method: "GET", Pattern: "/documents/{filename}", Handler: h.Find},
			{Method: "GET", Pattern: "/statistics", Handler: h.Statistics},
		},
	}
}

// List returns a page of a request's documents with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), requestID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single document and records a view event.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	filename := r.PathValue("filename")

	doc, err := h.sys.Find(r.Context(), requestID, filename)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if h.views != nil {
		if err := h.views.LogView(r.Context(), requestID, filename, "api"); err != nil {
			h.logger.Warn("view event not recorded", "filename", filename, "error", err)
		}
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Statistics returns label and review counts for a request.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	stats, err := h.sys.Statistics(r.Context(), requestID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return handlers.PathUUID(w, r, h.logger, "id", ErrInvalidRequest)
}
