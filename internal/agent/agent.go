// Package agent provides the remote model capabilities docket depends on:
// a document classifier and a text embedder, each selected by provider
// name from configuration and rate limited per client.
package agent

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/docket/internal/documents"
)

// Prompt carries a classification request. System and User are the
// rendered messages sent to a remote model. Request and Content hold the
// raw inputs for providers that work on them directly.
type Prompt struct {
	System  string
	User    string
	Request string
	Content string
}

// Verdict is a classifier's decision on a single document.
type Verdict struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Justification  string  `json:"justification"`
}

// Normalize maps label spellings such as "Non-Responsive" onto the
// canonical labels, replaces unknown labels with uncertain, and clamps
// confidence to [0, 1].
func (v Verdict) Normalize() Verdict {
	label := strings.ToLower(strings.TrimSpace(v.Classification))
	label = strings.NewReplacer("-", "_", " ", "_").Replace(label)
	if !documents.ValidDecision(label) {
		label = documents.Uncertain
	}
	v.Classification = label

	switch {
	case math.IsNaN(v.Confidence):
		v.Confidence = 0
	case v.Confidence < 0:
		v.Confidence = 0
	case v.Confidence > 1:
		v.Confidence = 1
	}

	v.Justification = strings.TrimSpace(v.Justification)
	return v
}

// Classifier labels a document against a request.
type Classifier interface {
	Classify(ctx context.Context, prompt Prompt) (Verdict, error)
	Model() string
}

// Embedder converts text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// NewClassifier creates the Classifier named by cfg.Provider.
func NewClassifier(cfg *ClassifierConfig, logger *slog.Logger) (Classifier, error) {
	logger = logger.With("system", "agent", "capability", "classifier", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropic(cfg, logger), nil
	case ProviderKeyword:
		return NewKeyword(), nil
	default:
		return nil, unknownProvider(cfg.Provider)
	}
}

// NewEmbedder creates the Embedder named by cfg.Provider.
func NewEmbedder(cfg *EmbedderConfig, logger *slog.Logger) (Embedder, error) {
	logger = logger.With("system", "agent", "capability", "embedder", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderOllama:
		return newOllama(cfg, logger)
	case ProviderNone:
		return disabled{}, nil
	default:
		return nil, unknownProvider(cfg.Provider)
	}
}

// limiter returns a token bucket allowing perSecond calls with the given
// burst. A non-positive rate disables limiting.
func limiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

type disabled struct{}

func (disabled) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrDisabled
}

func (disabled) Model() string {
	return ProviderNone
}
