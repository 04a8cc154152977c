package review

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/routes"
)

// ExportRequest selects the documents to export. Empty exports every
// reviewed document.
type ExportRequest struct {
	Filenames []string `json:"filenames"`
}

// Handler provides HTTP endpoints for review, feedback and export.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("handler", "review"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/requests/{id}",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/documents/{filename}/review", Handler: h.Submit},
			{Method: "GET", Pattern: "/feedback", Handler: h.Feedback},
			{Method: "POST", Pattern: "/export", Handler: h.Export},
		},
	}
}

// Submit records a reviewer decision for one document.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var d Decision
	if !handlers.DecodeJSON(w, r, h.logger, &d) {
		return
	}

	outcome, err := h.svc.Submit(r.Context(), requestID, r.PathValue("filename"), d)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome)
}

// Feedback returns correction statistics and entries for a request.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Feedback(r.Context(), requestID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// Export returns reviewed documents and records an export event.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var req ExportRequest
	if r.ContentLength != 0 {
		if !handlers.DecodeJSON(w, r, h.logger, &req) {
			return
		}
	}

	docs, err := h.svc.Export(r.Context(), requestID, req.Filenames)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, docs)
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return handlers.PathUUID(w, r, h.logger, "id", ErrInvalidRequest)
}
