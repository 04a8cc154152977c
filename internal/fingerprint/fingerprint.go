// Package fingerprint computes the content hash and semantic embedding
// used to detect duplicate documents.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/docket/internal/agent"
)

// DefaultMaxChars bounds the text sent for embedding.
const DefaultMaxChars = 8000

// Hash returns the hex-encoded SHA-256 digest of content.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Truncate returns at most maxRunes runes of content.
func Truncate(content string, maxRunes int) string {
	if maxRunes <= 0 {
		return content
	}
	n := 0
	for i := range content {
		if n == maxRunes {
			return content[:i]
		}
		n++
	}
	return content
}

// Service produces embeddings through an agent.Embedder. It holds no
// per-call state and is safe for concurrent use.
type Service struct {
	embedder agent.Embedder
	maxChars int
	logger   *slog.Logger
}

// New creates a Service. A non-positive maxChars uses DefaultMaxChars.
func New(embedder agent.Embedder, maxChars int, logger *slog.Logger) *Service {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Service{
		embedder: embedder,
		maxChars: maxChars,
		logger:   logger.With("system", "fingerprint"),
	}
}

// Embed returns the embedding of the truncated content and how long the
// call took. Failures return a nil vector and an error wrapping
// agent.ErrCapability, or agent.ErrDisabled when embeddings are turned off.
// Callers fall back to hash-only duplicate detection.
func (s *Service) Embed(ctx context.Context, content string) (vec []float32, elapsed time.Duration, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			vec, err = nil, fmt.Errorf("%w: embedder panic: %v", agent.ErrCapability, r)
		}
		elapsed = time.Since(start)
		if err != nil && !errors.Is(err, agent.ErrDisabled) {
			s.logger.Error("embedding generation failed", "error", err)
		}
	}()

	vec, err = s.embedder.Embed(ctx, Truncate(content, s.maxChars))
	if err != nil {
		return nil, 0, err
	}
	return vec, 0, nil
}
