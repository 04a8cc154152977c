package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/JaimeStill/docket/pkg/env"
)

const (
	EnvServerHost            = "DOCKET_SERVER_HOST"
	EnvServerPort            = "DOCKET_SERVER_PORT"
	EnvServerReadTimeout     = "DOCKET_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "DOCKET_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "DOCKET_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "DOCKET_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener settings. Timeouts are Go duration
// strings. ShutdownTimeout bounds how long in-flight requests may finish once
// shutdown begins; the process-wide budget is Config.ShutdownTimeout.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the listen address, bracketing IPv6 hosts.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration     { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration    { return duration(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration     { return duration(c.IdleTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	for dst, v := range map[*string]string{
		&c.Host:            overlay.Host,
		&c.ReadTimeout:     overlay.ReadTimeout,
		&c.WriteTimeout:    overlay.WriteTimeout,
		&c.IdleTimeout:     overlay.IdleTimeout,
		&c.ShutdownTimeout: overlay.ShutdownTimeout,
	} {
		if v != "" {
			*dst = v
		}
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
}

func (c *ServerConfig) loadDefaults() {
	for field, def := range map[*string]string{
		&c.Host:            "0.0.0.0",
		&c.ReadTimeout:     "1m",
		&c.WriteTimeout:    "2m",
		&c.IdleTimeout:     "2m",
		&c.ShutdownTimeout: "10s",
	} {
		if *field == "" {
			*field = def
		}
	}
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c *ServerConfig) loadEnv() error {
	return errors.Join(
		env.String(EnvServerHost, &c.Host),
		env.Int(EnvServerPort, &c.Port),
		env.Duration(EnvServerReadTimeout, &c.ReadTimeout),
		env.Duration(EnvServerWriteTimeout, &c.WriteTimeout),
		env.Duration(EnvServerIdleTimeout, &c.IdleTimeout),
		env.Duration(EnvServerShutdownTimeout, &c.ShutdownTimeout),
	)
}

func (c *ServerConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("host required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	durations := []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	return nil
}

// duration parses a value validate has already accepted.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
