package audit

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/routes"
)

// ErrInvalidRequest indicates a malformed request id in the path.
var ErrInvalidRequest = errors.New("invalid request id")

// Handler provides HTTP endpoints for the audit trail of a request.
type Handler struct {
	store      Store
	logger     *slog.Logger
	pagination pagination.Config
}

func NewHandler(store Store, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		store:      store,
		logger:     logger.With("handler", "audit"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/requests/{id}/audit",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/export", Handler: h.Export},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	requestID, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidRequest)
	if !ok {
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	result, err := h.store.List(r.Context(), requestID, page, FiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Export streams the filtered trail as CSV.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	requestID, ok := handlers.PathUUID(w, r, h.logger, "id", ErrInvalidRequest)
	if !ok {
		return
	}

	events, err := h.store.All(r.Context(), requestID, FiltersFromQuery(r.URL.Query()))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="audit-%s.csv"`, requestID))
	if err := WriteCSV(w, events); err != nil {
		h.logger.Error("audit export failed", "request_id", requestID, "error", err)
	}
}
