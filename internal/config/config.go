package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/pkg/database"
	"github.com/JaimeStill/docket/pkg/env"
	"github.com/JaimeStill/docket/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocketEnv             = "DOCKET_ENV"
	EnvDocketStore           = "DOCKET_STORE"
	EnvDocketLogLevel        = "DOCKET_LOG_LEVEL"
	EnvDocketLogFormat       = "DOCKET_LOG_FORMAT"
	EnvDocketShutdownTimeout = "DOCKET_SHUTDOWN_TIMEOUT"
	EnvDocketVersion         = "DOCKET_VERSION"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// DatabaseEnv maps the database config to its DOCKET_DB_* variables. The
// migrate command shares it so both binaries resolve the same target.
var DatabaseEnv = &database.Env{
	DSN:             "DOCKET_DB_DSN",
	Host:            "DOCKET_DB_HOST",
	Port:            "DOCKET_DB_PORT",
	Name:            "DOCKET_DB_NAME",
	User:            "DOCKET_DB_USER",
	Password:        "DOCKET_DB_PASSWORD",
	SSLMode:         "DOCKET_DB_SSL_MODE",
	ApplicationName: "DOCKET_DB_APPLICATION_NAME",
	MaxOpenConns:    "DOCKET_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCKET_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCKET_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCKET_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "DOCKET_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCKET_STORAGE_CONNECTION_STRING",
	AccountURL:       "DOCKET_STORAGE_ACCOUNT_URL",
	MaxListSize:      "DOCKET_STORAGE_MAX_LIST_SIZE",
	MaxRetries:       "DOCKET_STORAGE_MAX_RETRIES",
}

var agentEnv = &agent.Env{
	Classifier: &agent.ClassifierEnv{
		Provider:    "DOCKET_AGENT_PROVIDER",
		Model:       "DOCKET_AGENT_MODEL",
		APIKey:      "DOCKET_AGENT_API_KEY",
		MaxTokens:   "DOCKET_AGENT_MAX_TOKENS",
		Temperature: "DOCKET_AGENT_TEMPERATURE",
		RateLimit:   "DOCKET_AGENT_RATE_LIMIT",
		Burst:       "DOCKET_AGENT_BURST",
		Timeout:     "DOCKET_AGENT_TIMEOUT",
	},
	Embedder: &agent.EmbedderEnv{
		Provider:  "DOCKET_EMBEDDER_PROVIDER",
		Model:     "DOCKET_EMBEDDER_MODEL",
		BaseURL:   "DOCKET_EMBEDDER_BASE_URL",
		RateLimit: "DOCKET_EMBEDDER_RATE_LIMIT",
		Burst:     "DOCKET_EMBEDDER_BURST",
	},
}

// Config is the root configuration for the Docket service.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Agent           agent.Config     `toml:"agent"`
	Processing      ProcessingConfig `toml:"processing"`
	Store           string           `toml:"store"`
	LogLevel        string           `toml:"log_level"`
	LogFormat       string           `toml:"log_format"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the DOCKET_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if name, ok := env.Lookup(EnvDocketEnv); ok {
		return name
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// UsesPostgres reports whether any store is backed by the database.
func (c *Config) UsesPostgres() bool {
	return c.Store == StorePostgres || c.Processing.EmbeddingStore == StorePostgres
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Processing.Merge(&overlay.Processing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Agent.Finalize(agentEnv); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Processing.Finalize(); err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	if c.UsesPostgres() {
		if err := c.Database.Finalize(DatabaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	// Storage backs the optional blob source, so an unconfigured section is
	// left disabled rather than rejected.
	storageErr := c.Storage.Finalize(storageEnv)
	if c.Storage.Configured() && storageErr != nil {
		return fmt.Errorf("storage: %w", storageErr)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() error {
	return errors.Join(
		env.String(EnvDocketStore, &c.Store),
		env.String(EnvDocketLogLevel, &c.LogLevel),
		env.String(EnvDocketLogFormat, &c.LogFormat),
		env.Duration(EnvDocketShutdownTimeout, &c.ShutdownTimeout),
		env.String(EnvDocketVersion, &c.Version),
	)
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid store %q: want %s or %s", c.Store, StoreMemory, StorePostgres)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log_format %q: want %s or %s", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if name, ok := env.Lookup(EnvDocketEnv); ok {
		path := fmt.Sprintf(OverlayConfigPattern, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
