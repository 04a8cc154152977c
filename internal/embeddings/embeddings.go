// Package embeddings stores per-request content hashes and vectors and
// decides whether a document duplicates one already seen in its request.
package embeddings

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Default similarity thresholds.
const (
	DefaultSimilarityThreshold = 0.85
	DefaultExactThreshold      = 0.99
)

// Match is a stored document scoring at or above a similarity threshold.
type Match struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// Store holds fingerprints scoped by request. Within a request, records
// keep their first insertion position; re-adding a filename replaces its
// hash and vector in place.
type Store interface {
	// FindExact returns the earliest inserted filename with the given hash.
	FindExact(ctx context.Context, requestID uuid.UUID, hash string) (string, bool, error)
	// FindSimilar returns records scoring at least threshold against vec,
	// highest score first with ties in insertion order. Records without a
	// vector are skipped.
	FindSimilar(ctx context.Context, requestID uuid.UUID, vec []float32, threshold float64) ([]Match, error)
	Add(ctx context.Context, requestID uuid.UUID, filename, hash string, vec []float32) error
	Count(ctx context.Context, requestID uuid.UUID) (int, error)
	Clear(ctx context.Context, requestID uuid.UUID) error
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or zero norm score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Detection is the duplicate decision for one document.
type Detection struct {
	IsDuplicate bool    `json:"is_duplicate"`
	Exact       bool    `json:"exact"`
	DuplicateOf string  `json:"duplicate_of,omitempty"`
	Score       float64 `json:"similarity_score"`
}

// Detect applies the duplicate policy for one document and records its
// fingerprint:
//
// An exact hash match marks an exact duplicate with score 1 and the
// document is not recorded. Otherwise, when vec is present, the best
// match at or above threshold marks a near duplicate and the vector is
// recorded either way. Without a vector only the hash is recorded, so
// later identical content still matches exactly. An empty hash is never
// recorded.
//
// Detect must be called by a single goroutine per request, in document order.
func Detect(
	ctx context.Context,
	store Store,
	requestID uuid.UUID,
	filename, hash string,
	vec []float32,
	threshold float64,
) (Detection, error) {
	if hash != "" {
		original, ok, err := store.FindExact(ctx, requestID, hash)
		if err != nil {
			return Detection{}, fmt.Errorf("find exact: %w", err)
		}
		if ok && original != filename {
			return Detection{IsDuplicate: true, Exact: true, DuplicateOf: original, Score: 1}, nil
		}
	}

	var d Detection
	if len(vec) > 0 {
		matches, err := store.FindSimilar(ctx, requestID, vec, threshold)
		if err != nil {
			return Detection{}, fmt.Errorf("find similar: %w", err)
		}
		for _, m := range matches {
			if m.Filename == filename {
				continue
			}
			d = Detection{IsDuplicate: true, DuplicateOf: m.Filename, Score: m.Score}
			break
		}
	}

	if hash != "" || len(vec) > 0 {
		if err := store.Add(ctx, requestID, filename, hash, vec); err != nil {
			return Detection{}, fmt.Errorf("add fingerprint: %w", err)
		}
	}

	return d, nil
}
