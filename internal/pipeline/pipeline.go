// Package pipeline runs the two-phase processing of a request: an
// embedding pass that fingerprints every document and marks duplicates,
// then a classification pass that drives each document through the
// workflow graph. Both passes run on a parallel.Pool; all store writes
// happen on the collecting goroutine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/embeddings"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/feedback"
	"github.com/JaimeStill/docket/internal/fingerprint"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/internal/workflow"
	"github.com/JaimeStill/docket/pkg/parallel"
)

// Config tunes both processing phases.
type Config struct {
	Workers             int
	BatchSize           int
	PollInterval        time.Duration
	JoinTimeout         time.Duration
	SimilarityThreshold float64
	ExactThreshold      float64
	ErrorClassification string
	MaxDocumentSize     int64
}

// Runtime holds the long-lived collaborators shared by every run.
type Runtime struct {
	Fingerprint *fingerprint.Service
	Embeddings  embeddings.Store
	Classifier  agent.Classifier
	Detector    *exemptions.Detector
	Documents   documents.System
	Feedback    *feedback.Store
	Audit       audit.Sink
}

// Job describes one run for a request.
type Job struct {
	RequestID uuid.UUID
	Request   string
	Source    sources.Source
	// Files restricts the run to these names. Nil processes every document
	// the source lists.
	Files []string
	// Progress receives phase and counter updates. Optional.
	Progress *Progress
	// OnDocument fires on the collecting goroutine after each document is saved.
	OnDocument func(documents.Document)
}

// PhaseReport summarizes one pass of the pool.
type PhaseReport struct {
	Tasks   int           `json:"tasks"`
	Counted int           `json:"counted"`
	Workers int           `json:"workers"`
	Missing []int         `json:"missing,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Rate    float64       `json:"rate"`
}

func phaseReport[R any](r *parallel.Report[R]) PhaseReport {
	if r == nil {
		return PhaseReport{}
	}
	return PhaseReport{
		Tasks:   r.Tasks,
		Counted: r.Counted,
		Workers: r.Workers,
		Missing: slices.Clone(r.Missing),
		Elapsed: r.Elapsed,
		Rate:    r.Rate(),
	}
}

// Report is the outcome of a run. Documents are in task order.
type Report struct {
	RequestID      uuid.UUID              `json:"request_id"`
	Documents      []documents.Document   `json:"documents"`
	Duplicates     int                    `json:"duplicates"`
	Statistics     documents.Statistics   `json:"statistics"`
	Deaths         []parallel.WorkerDeath `json:"deaths,omitempty"`
	Embedding      PhaseReport            `json:"embedding"`
	Classification PhaseReport            `json:"classification"`
	Elapsed        time.Duration          `json:"elapsed"`
}

// Pipeline processes jobs. It is safe for concurrent use across requests;
// callers must not run two jobs for the same request at once.
type Pipeline struct {
	rt     Runtime
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline. Zero thresholds take the package defaults.
func New(rt Runtime, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = embeddings.DefaultSimilarityThreshold
	}
	if cfg.ExactThreshold <= 0 {
		cfg.ExactThreshold = workflow.DefaultExactThreshold
	}
	return &Pipeline{
		rt:     rt,
		cfg:    cfg,
		logger: logger.With("system", "pipeline"),
	}
}

// Run processes the job's documents through both phases.
func (p *Pipeline) Run(ctx context.Context, job Job) (report *Report, err error) {
	job.Progress.start()
	defer func() { job.Progress.finish(err) }()

	names, err := p.resolve(ctx, job)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, job, names)
}

// Reprocess re-runs both phases over the request's unreviewed documents.
// Reviewed documents keep their decisions. The request's embedding records
// are cleared first so stale fingerprints do not mark documents as
// duplicates of themselves, and the current feedback snapshot applies.
func (p *Pipeline) Reprocess(ctx context.Context, job Job) (report *Report, err error) {
	job.Progress.start()
	defer func() { job.Progress.finish(err) }()

	unreviewed, err := p.rt.Documents.Unreviewed(ctx, job.RequestID)
	if err != nil {
		return nil, fmt.Errorf("list unreviewed documents: %w", err)
	}
	if len(unreviewed) == 0 {
		return nil, ErrNoDocuments
	}

	job.Files = make([]string, len(unreviewed))
	for i, d := range unreviewed {
		job.Files[i] = d.Filename
	}

	names, err := p.resolve(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := p.rt.Embeddings.Clear(ctx, job.RequestID); err != nil {
		return nil, fmt.Errorf("clear embeddings: %w", err)
	}

	p.logger.Info("reprocessing unreviewed documents", "request_id", job.RequestID, "count", len(names))
	return p.run(ctx, job, names)
}

func (p *Pipeline) resolve(ctx context.Context, job Job) ([]string, error) {
	if job.Source == nil {
		return nil, ErrNoSource
	}

	names, err := job.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	names = sources.Filter(names, job.Files)
	if len(names) == 0 {
		return nil, ErrNoDocuments
	}
	return names, nil
}

func (p *Pipeline) run(ctx context.Context, job Job, names []string) (*Report, error) {
	start := time.Now()
	logger := p.logger.With("request_id", job.RequestID)

	logger.Info("run started", "documents", len(names), "location", job.Source.Location())

	report := &Report{RequestID: job.RequestID}

	docs, dups, embedReport, err := p.embed(ctx, job, names)
	report.Embedding = phaseReport(embedReport)
	report.Duplicates = dups
	if embedReport != nil {
		report.Deaths = append(report.Deaths, embedReport.Deaths...)
	}
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, fmt.Errorf("embedding phase: %w", err)
	}

	classified, classifyReport, err := p.classify(ctx, job, docs)
	report.Classification = phaseReport(classifyReport)
	if classifyReport != nil {
		report.Deaths = append(report.Deaths, classifyReport.Deaths...)
	}
	report.Documents = classified
	report.Statistics = documents.Tally(classified)
	report.Elapsed = time.Since(start)

	if err != nil {
		return report, fmt.Errorf("classification phase: %w", err)
	}

	logger.Info(
		"run complete",
		"documents", len(classified),
		"duplicates", dups,
		"errors", report.Statistics.Errors,
		"deaths", len(report.Deaths),
		"elapsed", report.Elapsed,
	)
	return report, nil
}
