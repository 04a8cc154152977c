package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/internal/workflow"
	"github.com/JaimeStill/docket/pkg/parallel"
)

func (p *Pipeline) newWorkflow(src sources.Source) (*workflow.Workflow, error) {
	return workflow.New(&workflow.Runtime{
		Source:     src,
		Classifier: p.rt.Classifier,
		Detector:   p.rt.Detector,
		Options: workflow.Options{
			ExactThreshold:      p.cfg.ExactThreshold,
			ErrorClassification: p.cfg.ErrorClassification,
			MaxDocumentSize:     p.cfg.MaxDocumentSize,
		},
		Logger: p.logger.With("workflow", "classify"),
	})
}

// classify runs the classification phase over the tagged documents. The
// feedback snapshot is taken once, before dispatch. Duplicates pass
// through the workflow without a classifier call and do not advance
// progress.
func (p *Pipeline) classify(ctx context.Context, job Job, docs []documents.Document) ([]documents.Document, *parallel.Report[workflow.Output], error) {
	wf, err := p.newWorkflow(job.Source)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := p.rt.Feedback.Snapshot(ctx, job.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if len(snapshot) > 0 {
		p.logger.Info("applying reviewer feedback", "request_id", job.RequestID, "corrections", len(snapshot))
	}

	inputs := make([]workflow.Input, len(docs))
	originals := 0
	for i, d := range docs {
		inputs[i] = workflow.Input{Document: d, Request: job.Request, Feedback: snapshot}
		if !d.IsDuplicate {
			originals++
		}
	}

	setup := func(worker int) (parallel.Processor[workflow.Input, workflow.Output], error) {
		return parallel.ProcessorFunc[workflow.Input, workflow.Output](
			func(ctx context.Context, task parallel.Task[workflow.Input]) (workflow.Output, error) {
				out, err := wf.Execute(ctx, task.Payload)
				if err != nil {
					return workflow.Output{}, err
				}
				return *out, nil
			},
		), nil
	}

	// collector writes outlive cancellation so drained results are kept
	storeCtx := context.WithoutCancel(ctx)

	results := make([]documents.Document, len(docs))
	received := make([]bool, len(docs))
	relay := audit.NewRelay(p.rt.Audit, p.logger)

	collect := func(id int, doc documents.Document, events []audit.Record) {
		results[id] = doc
		received[id] = true

		if err := p.rt.Documents.Save(storeCtx, doc); err != nil {
			p.logger.Error("save document failed", "filename", doc.Filename, "error", err)
		}
		if err := relay.Replay(storeCtx, events); err != nil {
			p.logger.Warn("classification audit replay incomplete", "filename", doc.Filename, "error", err)
		}
		if job.OnDocument != nil {
			job.OnDocument(doc)
		}
	}

	job.Progress.phase(PhaseClassification, originals)

	pool := parallel.New(p.poolConfig("classification"), setup, p.logger)
	report, err := pool.Run(ctx, inputs, parallel.Observer[workflow.Output]{
		Total: originals,
		Counts: func(r parallel.Result[workflow.Output]) bool {
			return !inputs[r.TaskID].Document.IsDuplicate
		},
		OnResult: func(r parallel.Result[workflow.Output]) {
			if r.Failed() {
				doc, events := p.failed(inputs[r.TaskID].Document, r.Err)
				collect(r.TaskID, doc, events)
				return
			}
			collect(r.TaskID, r.Value.Document, r.Value.Events)
		},
		OnProgress: job.Progress.advance,
		OnError: func(err error) {
			p.logger.Warn("classification task failed", "request_id", job.RequestID, "error", err)
		},
	})

	if err != nil && !errors.Is(err, parallel.ErrIncomplete) {
		return compact(results, received), report, err
	}

	if report != nil {
		for _, id := range report.Missing {
			doc, events := p.failed(inputs[id].Document, parallel.ErrWorkerDied)
			collect(id, doc, events)
		}
	}

	return compact(results, received), report, nil
}

// failed converts a task that produced no workflow output into an errored
// document.
func (p *Pipeline) failed(doc documents.Document, cause error) (documents.Document, []audit.Record) {
	msg := cause.Error()
	rec := audit.NewRecorder(doc.RequestID, doc.Filename)
	rec.Error(msg)

	doc.Classification = p.cfg.ErrorClassification
	if doc.IsDuplicate {
		doc.Classification = documents.Duplicate
	}
	doc.Confidence = 0
	doc.Justification = fmt.Sprintf("Error during processing: %s", msg)
	doc.Exemptions = make([]exemptions.Exemption, 0)
	doc.Errored = true
	doc.Error = msg
	return doc, rec.Events()
}

func compact(docs []documents.Document, received []bool) []documents.Document {
	out := make([]documents.Document, 0, len(docs))
	for i, d := range docs {
		if received[i] {
			out = append(out, d)
		}
	}
	return out
}
