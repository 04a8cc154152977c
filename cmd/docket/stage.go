package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/lifecycle"
	"github.com/JaimeStill/docket/pkg/storage"
)

const stagedContentType = "text/plain; charset=utf-8"

type stageOptions struct {
	dir       string
	prefix    string
	overwrite bool
	prune     bool
	verbose   bool
}

// stageReport counts what a staging pass did. Rejected maps a local file to
// the reason it failed document validation.
type stageReport struct {
	Uploaded []string
	Skipped  []string
	Pruned   []string
	Rejected map[string]string
	Bytes    int64
}

var stageOpts stageOptions

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Upload a directory of documents to blob storage",
	Long: `Stage validates every document in a directory the way processing does
and uploads the valid ones under a blob prefix, where the server's blob
source can read them. Existing blobs are kept unless --overwrite is set.`,
	Example: `  docket stage --dir ./docs --prefix requests/budget-2024
  docket stage --dir ./docs --prefix requests/budget-2024 --overwrite --prune`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, stageOpts)
	},
}

func init() {
	f := stageCmd.Flags()
	f.StringVarP(&stageOpts.dir, "dir", "d", "", "directory of documents (required)")
	f.StringVarP(&stageOpts.prefix, "prefix", "p", "", "blob prefix to upload under (required)")
	f.BoolVar(&stageOpts.overwrite, "overwrite", false, "replace blobs that already exist")
	f.BoolVar(&stageOpts.prune, "prune", false, "delete blobs under the prefix with no local file")
	f.BoolVarP(&stageOpts.verbose, "verbose", "v", false, "log at debug level")

	stageCmd.MarkFlagRequired("dir")
	stageCmd.MarkFlagRequired("prefix")
}

func runStage(cmd *cobra.Command, opts stageOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.Storage.Configured() {
		return fmt.Errorf("storage is not configured: set %s or %s",
			"DOCKET_STORAGE_CONNECTION_STRING", "DOCKET_STORAGE_ACCOUNT_URL")
	}

	logger := cliLogger(cfg, opts.verbose)

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return err
	}

	lc := lifecycle.New()
	if err := store.Start(lc); err != nil {
		return err
	}
	if err := lc.WaitForStartup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	local := sources.NewDir(opts.dir, cfg.Processing.Extension)
	remote := sources.NewBlob(store, opts.prefix, cfg.Processing.Extension, cfg.Storage.MaxListSize)

	report, err := stage(ctx, store, local, remote, opts, cfg.Processing.MaxDocumentSizeBytes())
	if report != nil {
		printStage(cmd.OutOrStdout(), report, opts.prefix)
	}
	return err
}

// stage uploads the valid documents of local under opts.prefix. With
// opts.prune it then deletes blobs in remote that have no local file.
func stage(
	ctx context.Context,
	store storage.System,
	local, remote sources.Source,
	opts stageOptions,
	maxSize int64,
) (*stageReport, error) {
	names, err := local.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &stageReport{Rejected: make(map[string]string)}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		key := path.Join(opts.prefix, name)
		if !opts.overwrite {
			exists, err := store.Exists(ctx, key)
			if err != nil {
				return report, err
			}
			if exists {
				report.Skipped = append(report.Skipped, name)
				continue
			}
		}

		text, err := sources.Load(ctx, local, name, maxSize)
		if err != nil {
			report.Rejected[name] = rejection(err)
			continue
		}

		if err := store.Upload(ctx, key, strings.NewReader(text), stagedContentType); err != nil {
			return report, err
		}
		report.Uploaded = append(report.Uploaded, name)
		report.Bytes += int64(len(text))
	}

	if !opts.prune {
		return report, nil
	}

	staged, err := remote.List(ctx)
	if err != nil {
		return report, err
	}
	for _, name := range staged {
		if slices.Contains(names, name) {
			continue
		}
		err := store.Delete(ctx, path.Join(opts.prefix, name))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return report, err
		}
		report.Pruned = append(report.Pruned, name)
	}
	return report, nil
}

func rejection(err error) string {
	for _, known := range []error{
		sources.ErrTooLarge,
		sources.ErrEmpty,
		sources.ErrEncoding,
		sources.ErrBlank,
		sources.ErrNotFile,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

func printStage(w io.Writer, r *stageReport, prefix string) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Staged under %s\n", prefix)

	fmt.Fprintf(w, "  %s %d file%s (%s)\n",
		color.GreenString("uploaded"), len(r.Uploaded), plural(len(r.Uploaded)),
		formatting.FormatBytes(r.Bytes, 1))
	if n := len(r.Skipped); n > 0 {
		fmt.Fprintf(w, "  %s  %d existing file%s\n", color.YellowString("skipped"), n, plural(n))
	}
	if n := len(r.Pruned); n > 0 {
		fmt.Fprintf(w, "  %s   %d blob%s\n", color.CyanString("pruned"), n, plural(n))
	}

	if len(r.Rejected) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s %d file%s\n", color.RedString("rejected"), len(r.Rejected), plural(len(r.Rejected)))
	for _, name := range slices.Sorted(maps.Keys(r.Rejected)) {
		fmt.Fprintf(w, "    %s: %s\n", name, r.Rejected[name])
	}
}
