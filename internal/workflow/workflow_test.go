package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/feedback"
	"github.com/JaimeStill/docket/internal/fingerprint"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/internal/workflow"
)

type fakeClassifier struct {
	verdict agent.Verdict
	err     error
	calls   atomic.Int32
	last    atomic.Value
}

func (f *fakeClassifier) Model() string { return "fake" }

func (f *fakeClassifier) Classify(ctx context.Context, p agent.Prompt) (agent.Verdict, error) {
	f.calls.Add(1)
	f.last.Store(p)
	return f.verdict, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWorkflow(t *testing.T, src sources.Source, c agent.Classifier, opts workflow.Options) *workflow.Workflow {
	t.Helper()
	if opts.ExactThreshold == 0 {
		opts.ExactThreshold = workflow.DefaultExactThreshold
	}
	wf, err := workflow.New(&workflow.Runtime{
		Source:     src,
		Classifier: c,
		Detector:   exemptions.NewDetector(nil, discard()),
		Options:    opts,
		Logger:     discard(),
	})
	if err != nil {
		t.Fatalf("workflow.New() error = %v", err)
	}
	return wf
}

func eventTypes(events []audit.Record) []string {
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

func TestExecuteResponsiveDetectsExemptions(t *testing.T) {
	src := sources.NewMemory(map[string]string{
		"memo.txt": "Budget discussion. Call 555-123-4567 or jane@gmail.com.",
	})
	c := &fakeClassifier{verdict: agent.Verdict{Classification: "Responsive", Confidence: 1.4, Justification: " budget "}}
	wf := newWorkflow(t, src, c, workflow.Options{})

	out, err := wf.Execute(context.Background(), workflow.Input{
		Document: documents.Document{RequestID: uuid.New(), Filename: "memo.txt"},
		Request:  "All records about the budget",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	doc := out.Document
	if doc.Classification != documents.Responsive || doc.Confidence != 1 || doc.Justification != "budget" {
		t.Errorf("verdict = (%s, %v, %q), want normalized responsive", doc.Classification, doc.Confidence, doc.Justification)
	}
	if len(doc.Exemptions) != 2 {
		t.Errorf("len(Exemptions) = %d, want 2", len(doc.Exemptions))
	}
	if doc.ContentHash != fingerprint.Hash(doc.Content) {
		t.Error("ContentHash not computed after load")
	}
	if doc.ProcessingTime <= 0 {
		t.Error("ProcessingTime not recorded")
	}
	if got := eventTypes(out.Events); len(got) != 1 || got[0] != audit.TypeClassify {
		t.Errorf("events = %v, want [classify]", got)
	}
}

func TestExecuteNonResponsiveSkipsExemptions(t *testing.T) {
	src := sources.NewMemory(map[string]string{"memo.txt": "SSN 123-45-6789"})
	c := &fakeClassifier{verdict: agent.Verdict{Classification: "non_responsive", Confidence: 0.9}}

	out, err := newWorkflow(t, src, c, workflow.Options{}).Execute(context.Background(), workflow.Input{
		Document: documents.Document{Filename: "memo.txt"},
		Request:  "budget",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.Document.Exemptions == nil || len(out.Document.Exemptions) != 0 {
		t.Errorf("Exemptions = %v, want empty non-nil", out.Document.Exemptions)
	}
}

func TestExecuteDuplicateSkipsClassifier(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		want       string
	}{
		{"exact", 1, "This document is an exact duplicate of 'a.txt'. Skipping AI classification."},
		{"at exact threshold", 0.99, "This document is an exact duplicate of 'a.txt'. Skipping AI classification."},
		{"near", 0.934, "This document is a near duplicate (93.4% similar) of 'a.txt'. Skipping AI classification."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClassifier{verdict: agent.Verdict{Classification: "responsive", Confidence: 1}}
			wf := newWorkflow(t, sources.NewMemory(nil), c, workflow.Options{})

			out, err := wf.Execute(context.Background(), workflow.Input{
				Document: documents.Document{
					Filename:        "b.txt",
					Content:         "Call 555-123-4567",
					IsDuplicate:     true,
					DuplicateOf:     "a.txt",
					SimilarityScore: tt.similarity,
				},
				Request: "anything",
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			if n := c.calls.Load(); n != 0 {
				t.Errorf("classifier called %d times for a duplicate", n)
			}
			doc := out.Document
			if doc.Classification != documents.Duplicate || doc.Confidence != 1 {
				t.Errorf("(classification, confidence) = (%s, %v), want (duplicate, 1)", doc.Classification, doc.Confidence)
			}
			if doc.Justification != tt.want {
				t.Errorf("Justification = %q, want %q", doc.Justification, tt.want)
			}
			if len(doc.Exemptions) != 0 {
				t.Errorf("duplicate carries %d exemptions", len(doc.Exemptions))
			}
		})
	}
}

func TestExecuteLoadFailures(t *testing.T) {
	src := sources.NewMemory(map[string]string{"blank.txt": "   \n"})

	tests := []struct {
		name     string
		filename string
		cause    error
	}{
		{"missing file", "absent.txt", sources.ErrNotFound},
		{"whitespace only", "blank.txt", sources.ErrBlank},
		{"no filename", "", sources.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClassifier{}
			out, err := newWorkflow(t, src, c, workflow.Options{}).Execute(context.Background(), workflow.Input{
				Document: documents.Document{Filename: tt.filename},
				Request:  "budget",
			})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}

			doc := out.Document
			if !doc.Errored || doc.Classification != "" {
				t.Errorf("(errored, classification) = (%v, %q), want (true, unset)", doc.Errored, doc.Classification)
			}
			if !strings.Contains(doc.Error, workflow.ErrLoad.Error()) || !strings.Contains(doc.Error, tt.cause.Error()) {
				t.Errorf("Error = %q, want load error wrapping %v", doc.Error, tt.cause)
			}
			if c.calls.Load() != 0 {
				t.Error("classifier called after load failure")
			}
			if got := eventTypes(out.Events); len(got) != 1 || got[0] != audit.TypeError {
				t.Errorf("events = %v, want [error]", got)
			}
		})
	}
}

func TestExecuteClassifierFailure(t *testing.T) {
	tests := []struct {
		name      string
		errorAs   string
		err       error
		wantLabel string
	}{
		{"credentials default uncertain", "uncertain", fmt.Errorf("%w: no key", agent.ErrCredentials), documents.Uncertain},
		{"capability left unset", "", fmt.Errorf("%w: timeout", agent.ErrCapability), ""},
		{"unexpected error", "uncertain", errors.New("boom"), documents.Uncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := sources.NewMemory(map[string]string{"a.txt": "content"})
			c := &fakeClassifier{err: tt.err}
			wf := newWorkflow(t, src, c, workflow.Options{ErrorClassification: tt.errorAs})

			out, err := wf.Execute(context.Background(), workflow.Input{
				Document: documents.Document{Filename: "a.txt"},
				Request:  "budget",
			})
			if err != nil {
				t.Fatalf("Execute() error = %v, want degraded document", err)
			}

			doc := out.Document
			if doc.Classification != tt.wantLabel || doc.Confidence != 0 || !doc.Errored {
				t.Errorf("doc = (%q, %v, errored %v), want (%q, 0, true)", doc.Classification, doc.Confidence, doc.Errored, tt.wantLabel)
			}
			if !strings.HasPrefix(doc.Justification, "Error during processing: ") {
				t.Errorf("Justification = %q", doc.Justification)
			}
			if got := eventTypes(out.Events); len(got) != 1 || got[0] != audit.TypeError {
				t.Errorf("events = %v, want [error]", got)
			}
		})
	}
}

func TestExecuteInjectsFeedback(t *testing.T) {
	c := &fakeClassifier{verdict: agent.Verdict{Classification: "uncertain", Confidence: 0.5}}
	wf := newWorkflow(t, sources.NewMemory(map[string]string{"a.txt": "quarterly budget"}), c, workflow.Options{})

	entries := []feedback.Entry{
		{Filename: "x.txt", OriginalClassification: "responsive", HumanDecision: "non_responsive", OriginalConfidence: 0.8, Snippet: "lunch menu"},
	}

	if _, err := wf.Execute(context.Background(), workflow.Input{
		Document: documents.Document{Filename: "a.txt"},
		Request:  "budget",
		Feedback: entries,
	}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	prompt := c.last.Load().(agent.Prompt)
	for _, want := range []string{"responsive → non_responsive: 1", "lunch menu", "FOIA Request: budget", "Document Content:\nquarterly budget"} {
		if !strings.Contains(prompt.User, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt.User)
		}
	}
	if prompt.Request != "budget" || prompt.Content != "quarterly budget" {
		t.Errorf("raw prompt inputs = (%q, %q)", prompt.Request, prompt.Content)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wf := newWorkflow(t, sources.NewMemory(nil), &fakeClassifier{}, workflow.Options{})
	_, err := wf.Execute(ctx, workflow.Input{Document: documents.Document{Filename: "a.txt", Content: "x"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}
