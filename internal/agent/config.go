package agent

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/docket/pkg/env"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderKeyword   = "keyword"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// EnvAnthropicAPIKey is read when no key is configured for the anthropic provider.
const EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"

// Config groups the capability configurations.
type Config struct {
	Classifier ClassifierConfig `toml:"classifier"`
	Embedder   EmbedderConfig   `toml:"embedder"`
}

// Env maps capability config fields to environment variable names.
type Env struct {
	Classifier *ClassifierEnv
	Embedder   *EmbedderEnv
}

// Finalize finalizes both capability configurations.
func (c *Config) Finalize(e *Env) error {
	if e == nil {
		e = &Env{}
	}
	if err := c.Classifier.Finalize(e.Classifier); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if err := c.Embedder.Finalize(e.Embedder); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.Classifier.Merge(&overlay.Classifier)
	c.Embedder.Merge(&overlay.Embedder)
}

// ClassifierConfig configures the classification capability. RateLimit is
// in calls per second; zero disables limiting. A zero Temperature takes
// the default.
type ClassifierConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	RateLimit   float64 `toml:"rate_limit"`
	Burst       int     `toml:"burst"`
	Timeout     string  `toml:"timeout"`
}

// ClassifierEnv maps classifier config fields to environment variable names.
type ClassifierEnv struct {
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   string
	Temperature string
	RateLimit   string
	Burst       string
	Timeout     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize(e *ClassifierEnv) error {
	c.loadDefaults()
	if e != nil {
		if err := c.loadEnv(e); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ClassifierConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c *ClassifierConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.Model == "" {
		c.Model = "claude-sonnet-4-5"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
}

func (c *ClassifierConfig) loadEnv(e *ClassifierEnv) error {
	err := errors.Join(
		env.String(e.Provider, &c.Provider),
		env.String(e.Model, &c.Model),
		env.String(e.APIKey, &c.APIKey),
		env.Int(e.MaxTokens, &c.MaxTokens),
		env.Float(e.Temperature, &c.Temperature),
		env.Float(e.RateLimit, &c.RateLimit),
		env.Int(e.Burst, &c.Burst),
		env.Duration(e.Timeout, &c.Timeout),
	)
	if c.APIKey == "" {
		c.APIKey = os.Getenv(EnvAnthropicAPIKey)
	}
	return err
}

func (c *ClassifierConfig) validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderKeyword:
	default:
		return unknownProvider(c.Provider)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}

// EmbedderConfig configures the embedding capability.
type EmbedderConfig struct {
	Provider  string  `toml:"provider"`
	Model     string  `toml:"model"`
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

// EmbedderEnv maps embedder config fields to environment variable names.
type EmbedderEnv struct {
	Provider  string
	Model     string
	BaseURL   string
	RateLimit string
	Burst     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EmbedderConfig) Finalize(e *EmbedderEnv) error {
	c.loadDefaults()
	if e != nil {
		if err := c.loadEnv(e); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EmbedderConfig) Merge(overlay *EmbedderConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.RateLimit != 0 {
		c.RateLimit = overlay.RateLimit
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
}

func (c *EmbedderConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOllama
	}
	if c.Model == "" {
		c.Model = "nomic-embed-text:latest"
	}
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
}

func (c *EmbedderConfig) loadEnv(e *EmbedderEnv) error {
	return errors.Join(
		env.String(e.Provider, &c.Provider),
		env.String(e.Model, &c.Model),
		env.String(e.BaseURL, &c.BaseURL),
		env.Float(e.RateLimit, &c.RateLimit),
		env.Int(e.Burst, &c.Burst),
	)
}

func (c *EmbedderConfig) validate() error {
	switch c.Provider {
	case ProviderOllama:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url required")
		}
	case ProviderNone:
	default:
		return unknownProvider(c.Provider)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	return nil
}
