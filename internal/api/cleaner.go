package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// cleaner clears every per-request store when a request is deleted.
type cleaner struct {
	domain *Domain
	logger *slog.Logger
}

func newCleaner(domain *Domain, logger *slog.Logger) *cleaner {
	return &cleaner{
		domain: domain,
		logger: logger.With("system", "cleaner"),
	}
}

func (c *cleaner) Clear(ctx context.Context, id uuid.UUID) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.domain.Documents.Clear(ctx, id) })
	g.Go(func() error { return c.domain.Embeddings.Clear(ctx, id) })
	g.Go(func() error { return c.domain.Audit.Store().Clear(ctx, id) })
	g.Go(func() error { return c.domain.Feedback.Clear(ctx, id) })

	if err := g.Wait(); err != nil {
		return err
	}

	c.domain.Runner.Forget(id)
	c.logger.Info("request data cleared", "request_id", id)
	return nil
}
