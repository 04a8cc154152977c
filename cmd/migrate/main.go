package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

type options struct {
	dsn      string
	up       bool
	down     bool
	steps    int
	version  bool
	force    int
	forceSet bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dsn, "dsn", "", "Database connection string (defaults to DOCKET_DB_* settings)")
	flag.BoolVar(&opts.up, "up", false, "Run all up migrations")
	flag.BoolVar(&opts.down, "down", false, "Run all down migrations")
	flag.IntVar(&opts.steps, "steps", 0, "Number of migrations (positive=up, negative=down)")
	flag.BoolVar(&opts.version, "version", false, "Print current migration version")
	flag.IntVar(&opts.force, "force", -1, "Force set version (use with caution)")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			opts.forceSet = true
		}
	})

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

// target resolves the migration URL from the flag or the DOCKET_DB_*
// variables, falling back to the local development database.
func target(dsn string) (string, error) {
	cfg := database.Config{
		DSN:      dsn,
		Name:     "docket",
		User:     "docket",
		Password: "docket",
	}
	if err := cfg.Finalize(config.DatabaseEnv); err != nil {
		return "", fmt.Errorf("database config: %w", err)
	}
	if dsn != "" {
		cfg.DSN = dsn
	}
	return cfg.URL(), nil
}

func run(opts options) error {
	url, err := target(opts.dsn)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("get version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case opts.forceSet:
		if err := m.Force(opts.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		fmt.Printf("forced to version %d\n", opts.force)
	case opts.up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run up migrations: %w", err)
		}
		fmt.Println("migrations applied successfully")
	case opts.down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run down migrations: %w", err)
		}
		fmt.Println("migrations reverted successfully")
	case opts.steps != 0:
		if err := m.Steps(opts.steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		fmt.Printf("applied %d migration steps\n", opts.steps)
	default:
		fmt.Println("usage: migrate [-dsn <connection-string>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}

	return nil
}
