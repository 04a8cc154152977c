package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/docket/pkg/formatting"
)

type anthropicClassifier struct {
	client      anthropic.Client
	hasKey      bool
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// newAnthropic builds the client without validating the key. A missing key
// surfaces as ErrCredentials on each call so a run can still record every
// document as errored.
func newAnthropic(cfg *ClassifierConfig, logger *slog.Logger) *anthropicClassifier {
	if cfg.APIKey == "" {
		logger.Warn("no api key configured; classification calls will fail", "env", EnvAnthropicAPIKey)
	}

	return &anthropicClassifier{
		client:      anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		hasKey:      cfg.APIKey != "",
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		timeout:     cfg.TimeoutDuration(),
		limiter:     limiter(cfg.RateLimit, cfg.Burst),
		logger:      logger,
	}
}

func (a *anthropicClassifier) Model() string {
	return a.model
}

func (a *anthropicClassifier) Classify(ctx context.Context, prompt Prompt) (Verdict, error) {
	if !a.hasKey {
		return Verdict{}, fmt.Errorf("%w: %s not set", ErrCredentials, EnvAnthropicAPIKey)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return Verdict{}, fmt.Errorf("%w: rate limiter: %w", ErrCapability, err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(a.temperature),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		return Verdict{}, mapAPIError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	a.logger.Debug(
		"classification call complete",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", time.Since(start),
	)

	verdict, err := formatting.Parse[Verdict](text.String())
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrCapability, err)
	}

	return verdict.Normalize(), nil
}

func mapAPIError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrCredentials, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrCapability, err)
}
