package main

import (
	"net/http"

	"github.com/JaimeStill/docket/internal/api"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/lifecycle"
	"github.com/JaimeStill/docket/pkg/module"
)

// Modules holds the mounted HTTP modules and the domain behind the API.
type Modules struct {
	API    *module.Module
	Domain *api.Domain
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	m, domain, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: m, Domain: domain}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

// health is the body of both health endpoints. Checks is omitted by healthz.
type health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.HandleNative("GET /healthz", healthz)
	router.HandleNative("GET /readyz", readyz(infra.Lifecycle))
	return router
}

// healthz reports liveness only; it never consults backing systems.
func healthz(w http.ResponseWriter, _ *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, health{Status: "ok"})
}

// readyz answers 503 until every startup check has passed.
func readyz(lc *lifecycle.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body := health{Status: "ready", Checks: lc.Status()}
		code := http.StatusOK
		if !lc.Ready() {
			body.Status, code = "not ready", http.StatusServiceUnavailable
		}
		handlers.RespondJSON(w, code, body)
	}
}
