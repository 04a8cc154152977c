package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/docket/pkg/env"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/middleware"
	"github.com/JaimeStill/docket/pkg/pagination"
)

const (
	EnvAPIBasePath    = "DOCKET_API_BASE_PATH"
	EnvAPIMaxBodySize = "DOCKET_API_MAX_BODY_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCKET_CORS_ENABLED",
	Origins:          "DOCKET_CORS_ORIGINS",
	AllowedMethods:   "DOCKET_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCKET_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "DOCKET_CORS_EXPOSED_HEADERS",
	AllowCredentials: "DOCKET_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCKET_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "DOCKET_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "DOCKET_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, request limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
}

// MaxBodySizeBytes returns the request body cap in bytes. Process, review,
// and request bodies are small JSON documents, so the default is 1MB.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 1 << 20
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
}

func (c *APIConfig) loadEnv() error {
	return errors.Join(
		env.String(EnvAPIBasePath, &c.BasePath),
		env.String(EnvAPIMaxBodySize, &c.MaxBodySize),
	)
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || (len(c.BasePath) > 1 && strings.HasSuffix(c.BasePath, "/")) {
		return fmt.Errorf("invalid base_path %q: must start with / and not end with /", c.BasePath)
	}
	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	return nil
}
