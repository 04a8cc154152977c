package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/routes"
	"github.com/JaimeStill/docket/pkg/storage"
)

// Source kinds accepted by the process and sources endpoints.
const (
	SourceDir  = "dir"
	SourceBlob = "blob"
)

var (
	errUnknownSource = errors.New("unknown source")
	errBlobDisabled  = errors.New("blob storage is not configured")
	errPathRequired  = errors.New("source path required")
	errDirDisabled   = errors.New("directory sources are not enabled")
	errOutsideRoot   = errors.New("source path outside the source root")
)

// SourceListing is the set of documents a process call against the same
// source would read.
type SourceListing struct {
	Location string   `json:"location"`
	Files    []string `json:"files"`
}

// SourceDocument is one loaded document with its validated text.
type SourceDocument struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	SizeFmt string `json:"size_formatted"`
	Content string `json:"content"`
}

// resolver turns a source kind and path into a Source.
type resolver struct {
	root      *os.Root
	storage   storage.System
	extension string
	listSize  int32
}

func newResolver(runtime *Runtime) resolver {
	return resolver{
		root:      runtime.SourceRoot,
		storage:   runtime.Storage,
		extension: runtime.Processing.Extension,
		listSize:  runtime.ListSize,
	}
}

func (r resolver) resolve(kind, path string) (sources.Source, error) {
	switch kind {
	case SourceDir:
		return r.dir(path)
	case SourceBlob:
		if r.storage == nil {
			return nil, errBlobDisabled
		}
		return sources.NewBlob(r.storage, path, r.extension, r.listSize), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownSource, kind)
	}
}

// dir opens path beneath the source root. Absolute paths and paths that
// climb out of the root are rejected. Reads go through the root, so
// symlinks cannot leave it either.
func (r resolver) dir(path string) (sources.Source, error) {
	if r.root == nil {
		return nil, errDirDisabled
	}
	if path == "" {
		return nil, errPathRequired
	}

	clean := filepath.Clean(path)
	if !filepath.IsLocal(clean) {
		return nil, fmt.Errorf("%w: %q", errOutsideRoot, path)
	}

	fsys, err := fs.Sub(r.root.FS(), filepath.ToSlash(clean))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errOutsideRoot, path)
	}
	return sources.NewFS(fsys, r.extension, clean), nil
}

type sourcesHandler struct {
	resolver
	maxSize int64
	logger  *slog.Logger
}

func newSourcesHandler(runtime *Runtime) *sourcesHandler {
	return &sourcesHandler{
		resolver: newResolver(runtime),
		maxSize:  runtime.Processing.MaxDocumentSizeBytes(),
		logger:   runtime.Logger.With("handler", "sources"),
	}
}

func (h *sourcesHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/sources",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/{name}", Handler: h.load},
		},
	}
}

func (h *sourcesHandler) list(w http.ResponseWriter, r *http.Request) {
	src, err := h.fromQuery(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	names, err := src.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, sourceStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, SourceListing{
		Location: src.Location(),
		Files:    names,
	})
}

func (h *sourcesHandler) load(w http.ResponseWriter, r *http.Request) {
	src, err := h.fromQuery(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	name := r.PathValue("name")
	text, err := sources.Load(r.Context(), src, name, h.maxSize)
	if err != nil {
		handlers.RespondError(w, h.logger, sourceStatus(err), err)
		return
	}

	size := int64(len(text))
	handlers.RespondJSON(w, http.StatusOK, SourceDocument{
		Name:    name,
		Size:    size,
		SizeFmt: formatting.FormatBytes(size, 1),
		Content: text,
	})
}

func (h *sourcesHandler) fromQuery(r *http.Request) (sources.Source, error) {
	q := r.URL.Query()
	return h.resolve(q.Get("source"), q.Get("path"))
}

func sourceStatus(err error) int {
	switch {
	case errors.Is(err, sources.ErrNotFound),
		errors.Is(err, sources.ErrNotFile):
		return http.StatusNotFound
	case errors.Is(err, sources.ErrEmptyName):
		return http.StatusBadRequest
	case errors.Is(err, sources.ErrTooLarge),
		errors.Is(err, sources.ErrEmpty),
		errors.Is(err, sources.ErrEncoding),
		errors.Is(err, sources.ErrBlank):
		return http.StatusUnprocessableEntity
	default:
		return storage.MapHTTPStatus(err)
	}
}
