package storage

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/docket/pkg/env"
)

// Config holds Azure Blob Storage connection parameters. Either
// ConnectionString or AccountURL is required; AccountURL authenticates with
// the default Azure credential chain.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	MaxListSize      int32  `toml:"max_list_size"`
	// MaxRetries bounds retries of failed storage calls. Negative disables retry.
	MaxRetries int32 `toml:"max_retries"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
	MaxListSize      string
	MaxRetries       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(e *Env) error {
	c.loadDefaults()
	if e != nil {
		if err := c.loadEnv(e); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.MaxListSize != 0 {
		c.MaxListSize = overlay.MaxListSize
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
}

// Configured reports whether any connection target is set.
func (c *Config) Configured() bool {
	return c.ConnectionString != "" || c.AccountURL != ""
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
	if c.MaxListSize == 0 {
		c.MaxListSize = 50
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxListSize > MaxListCap {
		c.MaxListSize = MaxListCap
	}
}

func (c *Config) loadEnv(e *Env) error {
	err := errors.Join(
		env.String(e.ContainerName, &c.ContainerName),
		env.String(e.ConnectionString, &c.ConnectionString),
		env.String(e.AccountURL, &c.AccountURL),
		env.Int32(e.MaxListSize, &c.MaxListSize),
		env.Int32(e.MaxRetries, &c.MaxRetries),
	)
	c.MaxListSize = min(c.MaxListSize, MaxListCap)
	return err
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.MaxListSize < 1 {
		return fmt.Errorf("max_list_size must be positive")
	}
	if !c.Configured() {
		return fmt.Errorf("connection_string or account_url required")
	}
	return nil
}
