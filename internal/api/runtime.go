package api

import (
	"fmt"
	"os"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Store      string
	Agent      agent.Config
	Processing config.ProcessingConfig
	Pagination pagination.Config
	ListSize   int32

	// SourceRoot bounds directory sources. Nil when none is configured.
	SourceRoot *os.Root
}

// NewRuntime creates an API runtime with a module-scoped logger. A
// configured source root is opened here and closed on shutdown.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	runtime := &Runtime{
		Infrastructure: infra.Scoped("api"),
		Store:          cfg.Store,
		Agent:          cfg.Agent,
		Processing:     cfg.Processing,
		Pagination:     cfg.API.Pagination,
		ListSize:       cfg.Storage.MaxListSize,
	}

	if dir := cfg.Processing.SourceRoot; dir != "" {
		root, err := os.OpenRoot(dir)
		if err != nil {
			return nil, fmt.Errorf("source root: %w", err)
		}
		infra.Lifecycle.OnShutdown(func() { root.Close() })
		runtime.SourceRoot = root
	}

	return runtime, nil
}

func (r *Runtime) postgres(store string) bool {
	return store == config.StorePostgres && r.Database != nil
}
