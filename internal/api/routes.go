package api

import (
	"net/http"

	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/requests"
	"github.com/JaimeStill/docket/internal/review"
	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/routes"
)

// Index describes the API: the running version and every registered route.
type Index struct {
	Version string   `json:"version"`
	Routes  []string `json:"routes"`
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
	version string,
) {
	groups := []routes.Group{
		requests.NewHandler(
			domain.Requests,
			newCleaner(domain, runtime.Logger),
			runtime.Logger,
			runtime.Pagination,
		).Routes(),
		documents.NewHandler(
			domain.Documents,
			domain.Review,
			runtime.Logger,
			runtime.Pagination,
		).Routes(),
		review.NewHandler(domain.Review, runtime.Logger).Routes(),
		audit.NewHandler(domain.Audit.Store(), runtime.Logger, runtime.Pagination).Routes(),
		newProcessHandler(domain, runtime).routes(),
		newSourcesHandler(runtime).routes(),
	}

	idx := Index{Version: version}
	groups = append(groups, routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{$}", Handler: func(w http.ResponseWriter, r *http.Request) {
				handlers.RespondJSON(w, http.StatusOK, idx)
			}},
		},
	})
	idx.Routes = routes.Patterns(groups...)

	routes.Register(mux, groups...)
}
