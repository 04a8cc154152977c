package workflow

import (
	"fmt"

	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/feedback"
	"github.com/JaimeStill/docket/pkg/state"
)

// State keys.
const (
	KeyDocument = "document"
	KeyRequest  = "request"
	KeyFeedback = "feedback"
	KeyRecorder = "recorder"
)

// Input is one document to classify. Document carries the filename, any
// preloaded content, and the duplicate decision from the embedding phase.
type Input struct {
	Document documents.Document
	Request  string
	Feedback []feedback.Entry
}

// Output is the classified document and the audit events produced for it.
type Output struct {
	Document documents.Document
	Events   []audit.Record
}

func documentFrom(s state.State) (documents.Document, error) {
	val, ok := s.Get(KeyDocument)
	if !ok {
		return documents.Document{}, fmt.Errorf("missing %s in state", KeyDocument)
	}
	doc, ok := val.(documents.Document)
	if !ok {
		return documents.Document{}, fmt.Errorf("%s is not documents.Document", KeyDocument)
	}
	return doc, nil
}

func recorderFrom(s state.State) (*audit.Recorder, error) {
	val, ok := s.Get(KeyRecorder)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", KeyRecorder)
	}
	rec, ok := val.(*audit.Recorder)
	if !ok {
		return nil, fmt.Errorf("%s is not *audit.Recorder", KeyRecorder)
	}
	return rec, nil
}

func stringFrom(s state.State, key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

func feedbackFrom(s state.State) []feedback.Entry {
	val, _ := s.Get(KeyFeedback)
	entries, _ := val.([]feedback.Entry)
	return entries
}

func loaded(s state.State) bool {
	doc, err := documentFrom(s)
	return err == nil && !doc.Errored
}

func duplicate(s state.State) bool {
	doc, err := documentFrom(s)
	return err == nil && doc.IsDuplicate
}

func responsive(s state.State) bool {
	doc, err := documentFrom(s)
	return err == nil && doc.Classification == documents.Responsive
}
