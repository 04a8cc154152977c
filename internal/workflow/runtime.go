package workflow

import (
	"log/slog"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/sources"
)

// Default option values.
const (
	DefaultExactThreshold      = 0.99
	DefaultErrorClassification = "uncertain"
)

// Options tunes node behavior.
type Options struct {
	// ExactThreshold is the similarity at or above which a duplicate is
	// described as exact.
	ExactThreshold float64
	// ErrorClassification labels documents whose classification failed.
	// Empty leaves the label unset.
	ErrorClassification string
	// MaxDocumentSize limits loaded content in bytes. Zero disables the limit.
	MaxDocumentSize int64
}

// Runtime bundles the dependencies that workflow nodes require.
// It is constructed by higher-level composition code and shared read-only
// by every execution.
type Runtime struct {
	Source     sources.Source
	Classifier agent.Classifier
	Detector   *exemptions.Detector
	Options    Options
	Logger     *slog.Logger
}
