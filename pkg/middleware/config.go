package middleware

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JaimeStill/docket/pkg/env"
)

// AnyOrigin in Origins allows every origin without credentials.
const AnyOrigin = "*"

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	ExposedHeaders   []string `toml:"exposed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv maps CORS config fields to environment variable names for override injection.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	ExposedHeaders   string
	AllowCredentials string
	MaxAge           string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CORSConfig) Finalize(e *CORSEnv) error {
	c.loadDefaults()
	if e != nil {
		if err := c.loadEnv(e); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Boolean fields always apply; slice and int
// fields only apply when set.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials

	for _, f := range []struct{ dst, src *[]string }{
		{&c.Origins, &overlay.Origins},
		{&c.AllowedMethods, &overlay.AllowedMethods},
		{&c.AllowedHeaders, &overlay.AllowedHeaders},
		{&c.ExposedHeaders, &overlay.ExposedHeaders},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}

	if overlay.MaxAge > 0 {
		c.MaxAge = overlay.MaxAge
	}
}

// AllowsAnyOrigin reports whether Origins contains the wildcard.
func (c *CORSConfig) AllowsAnyOrigin() bool {
	return slices.Contains(c.Origins, AnyOrigin)
}

func (c *CORSConfig) loadDefaults() {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if c.ExposedHeaders == nil {
		c.ExposedHeaders = []string{"Content-Disposition"}
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 3600
	}
}

func (c *CORSConfig) loadEnv(e *CORSEnv) error {
	return errors.Join(
		env.Bool(e.Enabled, &c.Enabled),
		env.List(e.Origins, &c.Origins),
		env.List(e.AllowedMethods, &c.AllowedMethods),
		env.List(e.AllowedHeaders, &c.AllowedHeaders),
		env.List(e.ExposedHeaders, &c.ExposedHeaders),
		env.Bool(e.AllowCredentials, &c.AllowCredentials),
		env.Int(e.MaxAge, &c.MaxAge),
	)
}

func (c *CORSConfig) validate() error {
	if c.AllowCredentials && c.AllowsAnyOrigin() {
		return fmt.Errorf("allow_credentials cannot be combined with origin %q", AnyOrigin)
	}
	return nil
}
