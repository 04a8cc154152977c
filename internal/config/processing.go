package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/pipeline"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/pkg/env"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/parallel"
)

const (
	EnvProcessingWorkers             = "DOCKET_PROCESSING_WORKERS"
	EnvProcessingBatchSize           = "DOCKET_PROCESSING_BATCH_SIZE"
	EnvProcessingPollInterval        = "DOCKET_PROCESSING_POLL_INTERVAL"
	EnvProcessingJoinTimeout         = "DOCKET_PROCESSING_JOIN_TIMEOUT"
	EnvProcessingSimilarityThreshold = "DOCKET_PROCESSING_SIMILARITY_THRESHOLD"
	EnvProcessingExactThreshold      = "DOCKET_PROCESSING_EXACT_THRESHOLD"
	EnvProcessingEmbedMaxChars       = "DOCKET_PROCESSING_EMBED_MAX_CHARS"
	EnvProcessingErrorClassification = "DOCKET_PROCESSING_ERROR_CLASSIFICATION"
	EnvProcessingMaxDocumentSize     = "DOCKET_PROCESSING_MAX_DOCUMENT_SIZE"
	EnvProcessingExtension           = "DOCKET_PROCESSING_EXTENSION"
	EnvProcessingGovernmentDomains   = "DOCKET_PROCESSING_GOVERNMENT_DOMAINS"
	EnvProcessingEmbeddingStore      = "DOCKET_PROCESSING_EMBEDDING_STORE"
	EnvProcessingSourceRoot          = "DOCKET_PROCESSING_SOURCE_ROOT"
)

// ProcessingConfig tunes the document pipeline.
type ProcessingConfig struct {
	Workers             int      `toml:"workers"`
	BatchSize           int      `toml:"batch_size"`
	PollInterval        string   `toml:"poll_interval"`
	JoinTimeout         string   `toml:"join_timeout"`
	SimilarityThreshold float64  `toml:"similarity_threshold"`
	ExactThreshold      float64  `toml:"exact_threshold"`
	EmbedMaxChars       int      `toml:"embed_max_chars"`
	ErrorClassification string   `toml:"error_classification"`
	MaxDocumentSize     string   `toml:"max_document_size"`
	Extension           string   `toml:"extension"`
	GovernmentDomains   []string `toml:"government_domains"`
	EmbeddingStore      string   `toml:"embedding_store"`

	// SourceRoot confines directory sources requested over HTTP. Empty
	// disables them.
	SourceRoot string `toml:"source_root"`
}

// MaxDocumentSizeBytes returns MaxDocumentSize in bytes.
func (c *ProcessingConfig) MaxDocumentSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxDocumentSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// Pipeline returns the pipeline tuning derived from this config.
func (c *ProcessingConfig) Pipeline() pipeline.Config {
	poll, _ := time.ParseDuration(c.PollInterval)
	join, _ := time.ParseDuration(c.JoinTimeout)
	return pipeline.Config{
		Workers:             c.Workers,
		BatchSize:           c.BatchSize,
		PollInterval:        poll,
		JoinTimeout:         join,
		SimilarityThreshold: c.SimilarityThreshold,
		ExactThreshold:      c.ExactThreshold,
		ErrorClassification: c.ErrorClassification,
		MaxDocumentSize:     c.MaxDocumentSizeBytes(),
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ProcessingConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ProcessingConfig) Merge(overlay *ProcessingConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.JoinTimeout != "" {
		c.JoinTimeout = overlay.JoinTimeout
	}
	if overlay.SimilarityThreshold != 0 {
		c.SimilarityThreshold = overlay.SimilarityThreshold
	}
	if overlay.ExactThreshold != 0 {
		c.ExactThreshold = overlay.ExactThreshold
	}
	if overlay.EmbedMaxChars != 0 {
		c.EmbedMaxChars = overlay.EmbedMaxChars
	}
	if overlay.ErrorClassification != "" {
		c.ErrorClassification = overlay.ErrorClassification
	}
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}
	if overlay.Extension != "" {
		c.Extension = overlay.Extension
	}
	if overlay.GovernmentDomains != nil {
		c.GovernmentDomains = overlay.GovernmentDomains
	}
	if overlay.EmbeddingStore != "" {
		c.EmbeddingStore = overlay.EmbeddingStore
	}
	if overlay.SourceRoot != "" {
		c.SourceRoot = overlay.SourceRoot
	}
}

func (c *ProcessingConfig) loadDefaults() {
	if c.Workers <= 0 {
		c.Workers = parallel.DefaultWorkers()
	}
	if c.PollInterval == "" {
		c.PollInterval = "1s"
	}
	if c.JoinTimeout == "" {
		c.JoinTimeout = "5s"
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.85
	}
	if c.ExactThreshold == 0 {
		c.ExactThreshold = 0.99
	}
	if c.EmbedMaxChars <= 0 {
		c.EmbedMaxChars = 8000
	}
	if c.ErrorClassification == "" {
		c.ErrorClassification = "uncertain"
	}
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "10MB"
	}
	if c.Extension == "" {
		c.Extension = sources.DefaultExtension
	}
	if c.GovernmentDomains == nil {
		c.GovernmentDomains = exemptions.DefaultGovernmentDomains
	}
	if c.EmbeddingStore == "" {
		c.EmbeddingStore = StoreMemory
	}
}

func (c *ProcessingConfig) loadEnv() error {
	return errors.Join(
		env.Int(EnvProcessingWorkers, &c.Workers),
		env.Int(EnvProcessingBatchSize, &c.BatchSize),
		env.Duration(EnvProcessingPollInterval, &c.PollInterval),
		env.Duration(EnvProcessingJoinTimeout, &c.JoinTimeout),
		env.Float(EnvProcessingSimilarityThreshold, &c.SimilarityThreshold),
		env.Float(EnvProcessingExactThreshold, &c.ExactThreshold),
		env.Int(EnvProcessingEmbedMaxChars, &c.EmbedMaxChars),
		env.String(EnvProcessingErrorClassification, &c.ErrorClassification),
		env.String(EnvProcessingMaxDocumentSize, &c.MaxDocumentSize),
		env.String(EnvProcessingExtension, &c.Extension),
		env.List(EnvProcessingGovernmentDomains, &c.GovernmentDomains),
		env.String(EnvProcessingEmbeddingStore, &c.EmbeddingStore),
		env.String(EnvProcessingSourceRoot, &c.SourceRoot),
	)
}

func (c *ProcessingConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size cannot be negative")
	}
	if _, err := time.ParseDuration(c.PollInterval); err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.JoinTimeout); err != nil {
		return fmt.Errorf("invalid join_timeout: %w", err)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1]")
	}
	if c.ExactThreshold < c.SimilarityThreshold || c.ExactThreshold > 1 {
		return fmt.Errorf("exact_threshold must be between similarity_threshold and 1")
	}
	switch c.ErrorClassification {
	case "responsive", "non_responsive", "uncertain":
	default:
		return fmt.Errorf("invalid error_classification %q", c.ErrorClassification)
	}
	if _, err := formatting.ParseBytes(c.MaxDocumentSize); err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("extension must start with a dot")
	}
	switch c.EmbeddingStore {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("invalid embedding_store %q", c.EmbeddingStore)
	}
	return nil
}
