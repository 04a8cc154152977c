package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/embeddings"
	"github.com/JaimeStill/docket/internal/fingerprint"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/pkg/parallel"
)

// fingerprinted is the immutable value an embedding worker returns.
type fingerprinted struct {
	Filename string
	Content  string
	Hash     string
	Vector   []float32
	Elapsed  time.Duration
	LoadErr  error
	EmbedErr error
}

func (p *Pipeline) embedPool(src sources.Source) *parallel.Pool[string, fingerprinted] {
	setup := func(worker int) (parallel.Processor[string, fingerprinted], error) {
		return parallel.ProcessorFunc[string, fingerprinted](
			func(ctx context.Context, task parallel.Task[string]) (fingerprinted, error) {
				return p.fingerprint(ctx, src, task.Payload), nil
			},
		), nil
	}
	return parallel.New(p.poolConfig("embedding"), setup, p.logger)
}

func (p *Pipeline) fingerprint(ctx context.Context, src sources.Source, name string) fingerprinted {
	out := fingerprinted{Filename: name}

	content, err := sources.Load(ctx, src, name, p.cfg.MaxDocumentSize)
	if err != nil {
		out.LoadErr = err
		return out
	}
	out.Content = content
	out.Hash = fingerprint.Hash(content)

	if p.rt.Fingerprint == nil {
		out.EmbedErr = agent.ErrDisabled
		return out
	}
	out.Vector, out.Elapsed, out.EmbedErr = p.rt.Fingerprint.Embed(ctx, content)
	return out
}

// embed runs the embedding phase. Duplicate detection happens on the
// collecting goroutine in task order, so the earlier of two identical
// documents is always the original regardless of worker timing.
func (p *Pipeline) embed(ctx context.Context, job Job, names []string) ([]documents.Document, int, *parallel.Report[fingerprinted], error) {
	docs := make([]documents.Document, len(names))
	for i, name := range names {
		docs[i] = documents.Document{RequestID: job.RequestID, Filename: name}
	}

	var dups int
	storeCtx := context.WithoutCancel(ctx)
	relay := audit.NewRelay(p.rt.Audit, p.logger)

	seq := newSequencer(func(id int, res parallel.Result[fingerprinted]) {
		doc, rec := p.detect(storeCtx, job, docs[id], res)
		docs[id] = doc
		if doc.IsDuplicate {
			dups++
			job.Progress.duplicates(dups)
		}
		if err := relay.Replay(storeCtx, rec.Events()); err != nil {
			p.logger.Warn("embedding audit replay incomplete", "filename", doc.Filename, "error", err)
		}
	})

	job.Progress.phase(PhaseEmbedding, len(names))

	report, err := p.embedPool(job.Source).Run(ctx, names, parallel.Observer[fingerprinted]{
		OnResult:   func(r parallel.Result[fingerprinted]) { seq.push(r.TaskID, r) },
		OnProgress: job.Progress.advance,
		OnError: func(err error) {
			p.logger.Warn("embedding task failed", "request_id", job.RequestID, "error", err)
		},
	})

	seq.flush()

	if err != nil {
		if errors.Is(err, parallel.ErrIncomplete) {
			p.logger.Error("embedding phase incomplete", "request_id", job.RequestID, "missing", report.Missing)
			return docs, dups, report, nil
		}
		return docs, dups, report, err
	}
	return docs, dups, report, nil
}

// detect applies duplicate detection to one fingerprinted document and
// returns the tagged document with its buffered audit events.
func (p *Pipeline) detect(
	ctx context.Context,
	job Job,
	doc documents.Document,
	res parallel.Result[fingerprinted],
) (documents.Document, *audit.Recorder) {
	rec := audit.NewRecorder(job.RequestID, doc.Filename)
	fp := res.Value

	if res.Err != nil || fp.LoadErr != nil {
		// treated as an original; the load node reports the failure
		return doc, rec
	}

	doc.Content = fp.Content
	doc.ContentHash = fp.Hash
	doc.EmbeddingGenerated = len(fp.Vector) > 0

	switch {
	case fp.EmbedErr == nil:
		rec.Embedding(true, fp.Elapsed, "")
	case !errors.Is(fp.EmbedErr, agent.ErrDisabled):
		rec.Embedding(false, fp.Elapsed, fp.EmbedErr.Error())
	}

	d, err := embeddings.Detect(
		ctx, p.rt.Embeddings, job.RequestID,
		doc.Filename, fp.Hash, fp.Vector,
		p.cfg.SimilarityThreshold,
	)
	if err != nil {
		p.logger.Error("duplicate detection failed", "filename", doc.Filename, "error", err)
		return doc, rec
	}

	doc.IsDuplicate = d.IsDuplicate
	doc.DuplicateOf = d.DuplicateOf
	doc.SimilarityScore = d.Score
	rec.Duplicate(d.IsDuplicate, d.DuplicateOf, d.Score)

	return doc, rec
}

func (p *Pipeline) poolConfig(name string) parallel.Config {
	return parallel.Config{
		Name:         name,
		Workers:      p.cfg.Workers,
		BatchSize:    p.cfg.BatchSize,
		PollInterval: p.cfg.PollInterval,
		JoinTimeout:  p.cfg.JoinTimeout,
	}
}
