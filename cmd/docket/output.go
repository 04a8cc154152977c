package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/pipeline"
)

var phaseLabels = map[string]string{
	pipeline.PhaseEmbedding:      "Fingerprinting",
	pipeline.PhaseClassification: "Classifying",
}

// phaseBars renders one progress bar per pipeline phase.
type phaseBars struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	phase   string
	bar     *progressbar.ProgressBar
}

func newPhaseBars(w io.Writer, enabled bool) *phaseBars {
	return &phaseBars{w: w, enabled: enabled}
}

func (b *phaseBars) update(s pipeline.Snapshot) {
	if !b.enabled || s.Phase == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.Phase != b.phase {
		b.close()
		b.phase = s.Phase
		b.bar = newBar(b.w, s.Total, phaseLabels[s.Phase])
	}
	if b.bar != nil && s.Total > 0 {
		b.bar.Set(s.Current)
	}
}

func (b *phaseBars) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.close()
}

func (b *phaseBars) close() {
	if b.bar == nil {
		return
	}
	b.bar.Finish()
	fmt.Fprintln(b.w)
	b.bar = nil
}

func newBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func labelColor(label string) *color.Color {
	switch label {
	case documents.Responsive:
		return color.New(color.FgGreen)
	case documents.NonResponsive:
		return color.New(color.FgRed)
	case documents.Duplicate:
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgYellow)
	}
}

func printSummary(w io.Writer, report *pipeline.Report, request string) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", cyan("=== Docket Run ==="))
	fmt.Fprintf(w, "Request:  %s\n", request)
	fmt.Fprintf(w, "Elapsed:  %s\n\n", report.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(w, "%s\n", bold("Documents:"))
	for _, d := range report.Documents {
		label := d.Classification
		detail := fmt.Sprintf("%.0f%%", d.Confidence*100)
		switch {
		case d.IsDuplicate:
			detail = "of " + d.DuplicateOf
		case d.Errored:
			detail = color.RedString("error: %s", d.Error)
		}
		line := fmt.Sprintf("  %-32s %s  %s", d.Filename, labelColor(label).Sprintf("%-15s", label), detail)
		if n := len(d.Exemptions); n > 0 {
			line += color.YellowString("  [%d exemption%s]", n, plural(n))
		}
		fmt.Fprintln(w, line)
	}

	s := report.Statistics
	fmt.Fprintf(w, "\n%s\n", bold("Summary:"))
	fmt.Fprintf(w, "  Total:           %d\n", s.Total)
	fmt.Fprintf(w, "  Responsive:      %s\n", color.GreenString("%d", s.Responsive))
	fmt.Fprintf(w, "  Non-responsive:  %s\n", color.RedString("%d", s.NonResponsive))
	fmt.Fprintf(w, "  Uncertain:       %s\n", color.YellowString("%d", s.Uncertain))
	fmt.Fprintf(w, "  Duplicates:      %s\n", color.MagentaString("%d", s.Duplicates))
	fmt.Fprintf(w, "  Exemptions:      %d documents\n", s.WithExemptions)
	if s.Errors > 0 {
		fmt.Fprintf(w, "  Errors:          %s\n", color.RedString("%d", s.Errors))
	}

	fmt.Fprintf(w, "\n%s\n", bold("Workers:"))
	fmt.Fprintf(w, "  Fingerprinting:  %d tasks on %d workers (%.1f/min)\n",
		report.Embedding.Tasks, report.Embedding.Workers, report.Embedding.Rate)
	fmt.Fprintf(w, "  Classification:  %d tasks on %d workers (%.1f/min)\n",
		report.Classification.Tasks, report.Classification.Workers, report.Classification.Rate)
	for _, death := range report.Deaths {
		fmt.Fprintf(w, "  %s\n", color.RedString("%s", death.Error()))
	}

	if len(report.Documents) == 0 {
		fmt.Fprintln(w, strings.Repeat("-", 40))
		fmt.Fprintln(w, "No documents processed.")
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
