package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/pipeline"
	"github.com/JaimeStill/docket/internal/requests"
	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/routes"
)

// ProcessRequest names where a request's documents live.
type ProcessRequest struct {
	Source string   `json:"source"`
	Path   string   `json:"path"`
	Files  []string `json:"files,omitempty"`
}

type processHandler struct {
	resolver
	requests  requests.System
	runner    *pipeline.Runner
	lifecycle context.Context
	logger    *slog.Logger
}

func newProcessHandler(domain *Domain, runtime *Runtime) *processHandler {
	return &processHandler{
		resolver:  newResolver(runtime),
		requests:  domain.Requests,
		runner:    domain.Runner,
		lifecycle: runtime.Lifecycle.Context(),
		logger:    runtime.Logger.With("handler", "process"),
	}
}

func (h *processHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/requests/{id}",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/process", Handler: h.process},
			{Method: "POST", Pattern: "/reprocess", Handler: h.reprocess},
			{Method: "GET", Pattern: "/progress", Handler: h.progress},
		},
	}
}

func (h *processHandler) process(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, pipeline.ModeProcess)
}

func (h *processHandler) reprocess(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, pipeline.ModeReprocess)
}

func (h *processHandler) progress(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", requests.ErrInvalidID)
	if !ok {
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.runner.Progress(id))
}

func (h *processHandler) start(w http.ResponseWriter, r *http.Request, mode pipeline.Mode) {
	id, ok := handlers.PathUUID(w, r, h.logger, "id", requests.ErrInvalidID)
	if !ok {
		return
	}

	var body ProcessRequest
	if !handlers.DecodeJSON(w, r, h.logger, &body) {
		return
	}

	src, err := h.resolve(body.Source, body.Path)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req, err := h.requests.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, requests.MapHTTPStatus(err), err)
		return
	}

	job := pipeline.Job{
		RequestID: id,
		Request:   req.Text,
		Source:    src,
		Files:     body.Files,
	}

	// The status is set before the run starts so a fast run cannot finish
	// ahead of it.
	if !h.runner.Running(id) {
		if _, err := h.requests.UpdateStatus(r.Context(), id, requests.StatusProcessing); err != nil {
			handlers.RespondError(w, h.logger, requests.MapHTTPStatus(err), err)
			return
		}
	}

	progress, err := h.runner.Start(h.lifecycle, mode, job, h.done(id, req.Status))
	if err != nil {
		if !errors.Is(err, pipeline.ErrRunInProgress) {
			h.restore(id, req.Status)
		}
		handlers.RespondError(w, h.logger, pipeline.MapHTTPStatus(err), err)
		return
	}

	h.logger.Info(
		"run started",
		"request_id", id,
		"mode", mode.String(),
		"source", src.Location(),
	)
	handlers.RespondJSON(w, http.StatusAccepted, progress.Snapshot())
}

// done moves the request to review once a run produced documents. A run
// that produced nothing puts back the status the request had before it.
func (h *processHandler) done(id uuid.UUID, previous requests.Status) func(*pipeline.Report, error) {
	if previous == requests.StatusProcessing {
		previous = requests.StatusDraft
	}

	return func(report *pipeline.Report, _ error) {
		status := previous
		if report != nil && len(report.Documents) > 0 {
			status = requests.StatusReview
		}

		ctx := context.WithoutCancel(h.lifecycle)
		if _, uerr := h.requests.UpdateStatus(ctx, id, status); uerr != nil {
			h.logger.Warn("request status not updated", "request_id", id, "error", uerr)
		}
	}
}

func (h *processHandler) restore(id uuid.UUID, status requests.Status) {
	if _, err := h.requests.UpdateStatus(context.WithoutCancel(h.lifecycle), id, status); err != nil {
		h.logger.Warn("request status not restored", "request_id", id, "error", err)
	}
}
