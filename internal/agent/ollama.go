package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

type ollamaEmbedder struct {
	llm     *ollama.LLM
	model   string
	limiter *rate.Limiter
}

func newOllama(cfg *EmbedderConfig, logger *slog.Logger) (*ollamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize ollama embedder: %w", err)
	}

	logger.Info("embedder ready", "model", cfg.Model, "base_url", cfg.BaseURL)

	return &ollamaEmbedder{
		llm:     llm,
		model:   cfg.Model,
		limiter: limiter(cfg.RateLimit, cfg.Burst),
	}, nil
}

func (o *ollamaEmbedder) Model() string {
	return o.model
}

func (o *ollamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrCapability, err)
	}

	vectors, err := o.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapability, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrCapability)
	}

	return vectors[0], nil
}
