// Package audit records the processing and review history of documents.
//
// Workers buffer events in a Recorder and return them with their results.
// The collecting goroutine replays them through a Relay into a Sink, which
// keeps the per-document order intact without sharing the Sink across
// goroutines.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeClassify  = "classify"
	TypeReview    = "review"
	TypeView      = "view"
	TypeExport    = "export"
	TypeError     = "error"
	TypeEmbedding = "embedding"
	TypeDuplicate = "duplicate"
)

// Event is a persisted audit trail entry. Filename is empty for
// request-level events such as exports.
type Event struct {
	ID           uuid.UUID `json:"id"`
	Seq          int64     `json:"seq"`
	Type         string    `json:"type"`
	RequestID    uuid.UUID `json:"request_id"`
	Filename     string    `json:"filename,omitempty"`
	Details      string    `json:"details"`
	AIResult     string    `json:"ai_result,omitempty"`
	UserDecision string    `json:"user_decision,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

func classificationDetails(confidence float64) string {
	return fmt.Sprintf("AI Classification - Confidence: %.2f", confidence)
}

func reviewDetails(aiResult, decision string) string {
	if aiResult != decision {
		return "User Review - Override"
	}
	return "User Review - Approved"
}

func viewDetails(location string) string {
	return "Document viewed in " + location
}

func exportDetails(format string, count int, selected []string) string {
	details := fmt.Sprintf("Export %s - %d documents", format, count)
	if len(selected) == 0 {
		return details
	}

	shown := selected[:min(3, len(selected))]
	details += " (Selected: " + strings.Join(shown, ", ")
	if len(selected) > 3 {
		details += fmt.Sprintf(" and %d more", len(selected)-3)
	}
	return details + ")"
}

func errorDetails(message string) string {
	return "Error: " + message
}

func embeddingDetails(success bool, elapsed time.Duration, message string) string {
	if !success {
		if message == "" {
			message = "Unknown error"
		}
		return "Embedding generation failed: " + message
	}
	if elapsed > 0 {
		return fmt.Sprintf("Embedding generated successfully in %.2fs", elapsed.Seconds())
	}
	return "Embedding generated successfully"
}

func duplicateDetails(isDuplicate bool, duplicateOf string, similarity float64) string {
	switch {
	case !isDuplicate:
		return "Marked as original document (no duplicates found)"
	case similarity == 1:
		return "Marked as exact duplicate of " + duplicateOf
	case similarity > 0:
		return fmt.Sprintf("Marked as duplicate of %s (%.1f%% similar)", duplicateOf, similarity*100)
	default:
		return "Marked as duplicate of " + duplicateOf
	}
}
