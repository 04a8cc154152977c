package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
)

// Server owns the process-wide systems, the API module, and the listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
	logger  *slog.Logger
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"base_path", cfg.API.BasePath,
		"version", cfg.Version,
		"store", cfg.Store,
		"classifier", cfg.Agent.Classifier.Provider,
		"embedder", cfg.Agent.Embedder.Provider,
		"workers", cfg.Processing.Workers,
		"systems", infra.Systems(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
		logger:  infra.Logger,
	}, nil
}

// Start registers every system with the lifecycle coordinator and begins
// serving. Readiness is reported asynchronously once startup checks finish.
// If the listener cannot bind, systems already registered are shut down.
func (s *Server) Start() error {
	lc := s.infra.Lifecycle

	if err := s.infra.Start(); err != nil {
		return err
	}

	// Runs dispatch under the lifecycle context. Waiting for them in the drain
	// phase keeps the database open until their last write.
	lc.OnDrain(func() {
		s.modules.Domain.Runner.Wait()
		s.logger.Info("background runs stopped")
	})

	if err := s.http.Start(lc); err != nil {
		return errors.Join(err, lc.Shutdown(5*time.Second))
	}

	go func() {
		if err := lc.WaitForStartup(); err != nil {
			s.logger.Error("startup checks failed", "error", err)
			return
		}
		s.logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info("shutting down", "timeout", timeout)
	if err := s.infra.Lifecycle.Shutdown(timeout); err != nil {
		return err
	}
	s.logger.Info("docket stopped")
	return nil
}
