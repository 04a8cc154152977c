package audit

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Record is an unpersisted event carrying the raw values its Sink method
// needs. Only the fields relevant to Type are set.
type Record struct {
	Type        string        `json:"type"`
	RequestID   uuid.UUID     `json:"request_id"`
	Filename    string        `json:"filename"`
	Result      string        `json:"result,omitempty"`
	Confidence  float64       `json:"confidence,omitempty"`
	Message     string        `json:"message,omitempty"`
	Success     bool          `json:"success,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`
	IsDuplicate bool          `json:"is_duplicate,omitempty"`
	DuplicateOf string        `json:"duplicate_of,omitempty"`
	Similarity  float64       `json:"similarity,omitempty"`
}

// Recorder buffers the events produced while processing one document.
// It is not safe for concurrent use.
type Recorder struct {
	requestID uuid.UUID
	filename  string
	records   []Record
}

func NewRecorder(requestID uuid.UUID, filename string) *Recorder {
	return &Recorder{requestID: requestID, filename: filename}
}

func (r *Recorder) Classification(result string, confidence float64) {
	r.add(Record{Type: TypeClassify, Result: result, Confidence: confidence})
}

func (r *Recorder) Error(message string) {
	r.add(Record{Type: TypeError, Message: message})
}

func (r *Recorder) Duplicate(isDuplicate bool, duplicateOf string, similarity float64) {
	r.add(Record{
		Type:        TypeDuplicate,
		IsDuplicate: isDuplicate,
		DuplicateOf: duplicateOf,
		Similarity:  similarity,
	})
}

func (r *Recorder) Embedding(success bool, elapsed time.Duration, message string) {
	r.add(Record{Type: TypeEmbedding, Success: success, Elapsed: elapsed, Message: message})
}

// Events returns a copy of the buffered records in the order they were made.
func (r *Recorder) Events() []Record {
	return slices.Clone(r.records)
}

func (r *Recorder) add(rec Record) {
	rec.RequestID = r.requestID
	rec.Filename = r.filename
	r.records = append(r.records, rec)
}
