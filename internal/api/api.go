// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/pkg/middleware"
	"github.com/JaimeStill/docket/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain exposes the background runner so the caller can wait
// for in-flight runs during shutdown.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, nil, err
	}

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime, cfg.Version)

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, nil, fmt.Errorf("api module: %w", err)
	}
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.MaxBytes(cfg.API.MaxBodySizeBytes()))

	return m, domain, nil
}
