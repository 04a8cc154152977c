// Command docket classifies a directory of FOIA documents from the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "docket",
	Short: "FOIA document triage",
	Long: `docket fingerprints a batch of documents, marks duplicates, detects
privacy exemptions, and classifies each document as responsive or
non-responsive to a FOIA request.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(versionCmd)
}

// cliLogger keeps the terminal quiet unless --verbose is set, honoring the
// configured log format.
func cliLogger(cfg *config.Config, verbose bool) *slog.Logger {
	quiet := *cfg
	quiet.LogLevel = "warn"
	if verbose {
		quiet.LogLevel = "debug"
	}
	return infrastructure.NewLogger(&quiet, os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
