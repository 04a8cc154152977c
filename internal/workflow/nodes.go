package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/fingerprint"
	"github.com/JaimeStill/docket/internal/sources"
	"github.com/JaimeStill/docket/pkg/state"
)

// LoadNode reads the document content from the runtime source unless it
// was supplied with the input. A failed read marks the document errored
// and ends the workflow.
func LoadNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		doc, err := documentFrom(s)
		if err != nil {
			return s, err
		}
		rec, err := recorderFrom(s)
		if err != nil {
			return s, err
		}

		if doc.Content == "" {
			content, err := sources.Load(ctx, rt.Source, doc.Filename, rt.Options.MaxDocumentSize)
			if err != nil {
				loadErr := fmt.Errorf("%w: %w", ErrLoad, err)
				doc.Classification = ""
				doc.Confidence = 0
				doc.Justification = "Error during processing: " + loadErr.Error()
				doc.Errored = true
				doc.Error = loadErr.Error()
				rec.Error(loadErr.Error())

				rt.Logger.WarnContext(ctx, "document load failed", "filename", doc.Filename, "error", err)
				return s.Set(KeyDocument, doc), nil
			}
			doc.Content = content
		}

		if doc.ContentHash == "" {
			doc.ContentHash = fingerprint.Hash(doc.Content)
		}

		return s.Set(KeyDocument, doc), nil
	})
}

// DuplicateNode labels documents the embedding phase marked as duplicates
// and ends the workflow for them, so the classifier is never called.
func DuplicateNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		doc, err := documentFrom(s)
		if err != nil {
			return s, err
		}
		if !doc.IsDuplicate {
			return s, nil
		}

		kind := "an exact duplicate"
		if doc.SimilarityScore < rt.Options.ExactThreshold {
			kind = fmt.Sprintf("a near duplicate (%.1f%% similar)", doc.SimilarityScore*100)
		}

		doc.Classification = documents.Duplicate
		doc.Confidence = 1
		doc.Justification = fmt.Sprintf("This document is %s of '%s'. Skipping AI classification.", kind, doc.DuplicateOf)
		doc.Exemptions = doc.Exemptions[:0]

		rt.Logger.DebugContext(ctx, "duplicate skipped", "filename", doc.Filename, "duplicate_of", doc.DuplicateOf)
		return s.Set(KeyDocument, doc), nil
	})
}

// ClassifyNode asks the classifier for a verdict. Any classifier failure
// degrades the document to the configured error classification with zero
// confidence and marks it errored.
func ClassifyNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		doc, err := documentFrom(s)
		if err != nil {
			return s, err
		}
		rec, err := recorderFrom(s)
		if err != nil {
			return s, err
		}

		prompt := BuildPrompt(stringFrom(s, KeyRequest), doc.Content, feedbackFrom(s))

		verdict, err := rt.Classifier.Classify(ctx, prompt)
		if err != nil {
			doc.Classification = rt.Options.ErrorClassification
			doc.Confidence = 0
			doc.Justification = "Error during processing: " + err.Error()
			doc.Errored = true
			doc.Error = err.Error()
			rec.Error(err.Error())

			rt.Logger.WarnContext(ctx, "classification failed", "filename", doc.Filename, "error", err)
			return s.Set(KeyDocument, doc), nil
		}

		verdict = verdict.Normalize()
		doc.Classification = verdict.Classification
		doc.Confidence = verdict.Confidence
		doc.Justification = verdict.Justification
		rec.Classification(verdict.Classification, verdict.Confidence)

		rt.Logger.InfoContext(
			ctx, "classify node complete",
			"filename", doc.Filename,
			"classification", doc.Classification,
			"confidence", doc.Confidence,
		)
		return s.Set(KeyDocument, doc), nil
	})
}

// ExemptNode detects candidate privacy redactions in responsive documents.
func ExemptNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		doc, err := documentFrom(s)
		if err != nil {
			return s, err
		}

		doc.Exemptions = rt.Detector.Detect(doc.Content)
		return s.Set(KeyDocument, doc), nil
	})
}
