// Package infrastructure assembles the shared runtime a docket process needs
// before any domain system is built: the lifecycle coordinator, the process
// logger, and whichever backing services the configuration selects.
package infrastructure

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/pkg/database"
	"github.com/JaimeStill/docket/pkg/lifecycle"
	"github.com/JaimeStill/docket/pkg/storage"
)

// Infrastructure carries the shared systems handed to domain constructors.
// Database is nil for an all-memory configuration and Storage is nil when no
// blob account is configured; callers check before use.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// starter is the registration surface shared by database and storage.
type starter interface {
	Start(lc *lifecycle.Coordinator) error
}

// NewLogger builds the process logger writing to w in the configured format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level()}
	if cfg.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New constructs the systems the configuration asks for without contacting
// them. Connectivity is verified by the startup hooks registered in Start.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(cfg, os.Stderr).With("env", cfg.Env())

	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
	}

	if cfg.UsesPostgres() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Configured() {
		store, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers every constructed system with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	for name, sys := range i.systems() {
		if err := sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("start %s: %w", name, err)
		}
	}
	return nil
}

// Scoped returns a shallow copy whose logger carries module=name. The
// systems themselves are shared.
func (i *Infrastructure) Scoped(name string) *Infrastructure {
	scoped := *i
	scoped.Logger = i.Logger.With("module", name)
	return &scoped
}

// Systems lists the names of the backing services in use, in start order.
func (i *Infrastructure) Systems() []string {
	var names []string
	for name := range i.systems() {
		names = append(names, name)
	}
	return names
}

func (i *Infrastructure) systems() iter.Seq2[string, starter] {
	return func(yield func(string, starter) bool) {
		if i.Database != nil && !yield("database", i.Database) {
			return
		}
		if i.Storage != nil {
			yield("storage", i.Storage)
		}
	}
}
