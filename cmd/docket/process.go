package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/embeddings"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/feedback"
	"github.com/JaimeStill/docket/internal/fingerprint"
	"github.com/JaimeStill/docket/internal/pipeline"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/pkg/parallel"
)

type processOptions struct {
	dir        string
	request    string
	files      []string
	workers    int
	batchSize  int
	classifier string
	embedder   string
	threshold  float64
	auditCSV   string
	jsonOut    bool
	verbose    bool
}

var processOpts processOptions

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a directory of documents against a FOIA request",
	Long: `Process reads every document in a directory, fingerprints it for
duplicate detection, and classifies each original against the request.
Stores are held in memory for the duration of the run.`,
	Example: `  docket process --dir ./docs --request "All records about the 2024 budget"
  docket process --dir ./docs --request "budget" --classifier keyword --embedder none`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, processOpts)
	},
}

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processOpts.dir, "dir", "d", "", "directory of documents (required)")
	f.StringVarP(&processOpts.request, "request", "r", "", "FOIA request text (required)")
	f.StringSliceVar(&processOpts.files, "files", nil, "process only these filenames")
	f.IntVarP(&processOpts.workers, "workers", "w", 0, "worker count (default from config)")
	f.IntVar(&processOpts.batchSize, "batch-size", 0, "tasks per batch (0 sizes automatically)")
	f.StringVar(&processOpts.classifier, "classifier", "", "classifier provider: anthropic or keyword")
	f.StringVar(&processOpts.embedder, "embedder", "", "embedder provider: ollama or none")
	f.Float64Var(&processOpts.threshold, "threshold", 0, "near-duplicate similarity threshold")
	f.StringVar(&processOpts.auditCSV, "audit-csv", "", "write the audit trail to this CSV file")
	f.BoolVar(&processOpts.jsonOut, "json", false, "print the run report as JSON")
	f.BoolVarP(&processOpts.verbose, "verbose", "v", false, "log at debug level")

	processCmd.MarkFlagRequired("dir")
	processCmd.MarkFlagRequired("request")
}

func runProcess(cmd *cobra.Command, opts processOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := cliLogger(cfg, opts.verbose)

	classifier, err := agent.NewClassifier(&cfg.Agent.Classifier, logger)
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	embedder, err := agent.NewEmbedder(&cfg.Agent.Embedder, logger)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}

	pagination := cfg.API.Pagination
	docs := documents.NewMemory(logger, pagination)
	trail := audit.NewTrail(audit.NewMemoryStore(pagination), logger)

	p := pipeline.New(
		pipeline.Runtime{
			Fingerprint: fingerprint.New(embedder, cfg.Processing.EmbedMaxChars, logger),
			Embeddings:  embeddings.NewMemory(),
			Classifier:  classifier,
			Detector:    exemptions.NewDetector(cfg.Processing.GovernmentDomains, logger),
			Documents:   docs,
			Feedback:    feedback.New(feedback.NewMemory(), logger),
			Audit:       trail,
		},
		cfg.Processing.Pipeline(),
		logger,
	)

	bars := newPhaseBars(cmd.ErrOrStderr(), !opts.jsonOut)
	job := pipeline.Job{
		RequestID: uuid.New(),
		Request:   opts.request,
		Source:    sources.NewDir(opts.dir, cfg.Processing.Extension),
		Files:     opts.files,
		Progress:  pipeline.NewProgress(bars.update),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, runErr := p.Run(ctx, job)
	bars.finish()

	if report == nil {
		return runErr
	}

	if opts.auditCSV != "" {
		if err := writeAudit(context.WithoutCancel(ctx), trail.Store(), job.RequestID, opts.auditCSV); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printSummary(out, report, opts.request)
	}

	if errors.Is(runErr, parallel.ErrCancelled) {
		return fmt.Errorf("run cancelled after %d documents", len(report.Documents))
	}
	return runErr
}

func loadConfig(opts processOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.classifier != "" {
		cfg.Agent.Classifier.Provider = opts.classifier
	}
	if opts.embedder != "" {
		cfg.Agent.Embedder.Provider = opts.embedder
	}
	if opts.workers > 0 {
		cfg.Processing.Workers = opts.workers
	}
	if opts.batchSize > 0 {
		cfg.Processing.BatchSize = opts.batchSize
	}
	if opts.threshold > 0 {
		cfg.Processing.SimilarityThreshold = opts.threshold
	}
	return cfg, nil
}

func writeAudit(ctx context.Context, store audit.Store, requestID uuid.UUID, path string) error {
	events, err := store.All(ctx, requestID, audit.Filters{})
	if err != nil {
		return fmt.Errorf("read audit trail: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audit file: %w", err)
	}
	defer f.Close()

	if err := audit.WriteCSV(f, events); err != nil {
		return fmt.Errorf("write audit csv: %w", err)
	}
	return f.Close()
}
