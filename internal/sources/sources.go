// Package sources lists and reads the documents of a request from a
// directory, an Azure blob container, or memory.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultExtension is the document extension listed when none is configured.
const DefaultExtension = ".txt"

var (
	ErrEmptyName = errors.New("no filename provided")
	ErrNotFound  = errors.New("file not found")
	ErrNotFile   = errors.New("not a file")
	ErrTooLarge  = errors.New("file exceeds maximum document size")
	ErrEmpty     = errors.New("empty file")
	ErrEncoding  = errors.New("unable to decode file (not UTF-8)")
	ErrBlank     = errors.New("file contains only whitespace")
)

// Source provides the documents of one request. Names are relative to the
// source and List returns them sorted.
type Source interface {
	List(ctx context.Context) ([]string, error)
	// Open returns ErrNotFound or ErrNotFile for names that cannot be read
	// as documents. The caller must close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Location describes the source for logs.
	Location() string
}

// Load reads name from src and validates it as document text. A maxSize of
// zero or less disables the size check.
func Load(ctx context.Context, src Source, name string, maxSize int64) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	rc, err := src.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxSize > 0 {
		r = io.LimitReader(rc, maxSize+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	switch {
	case maxSize > 0 && int64(len(data)) > maxSize:
		return "", fmt.Errorf("%w: %s (limit %d bytes)", ErrTooLarge, name, maxSize)
	case len(data) == 0:
		return "", fmt.Errorf("%w: %s", ErrEmpty, name)
	case !utf8.Valid(data):
		return "", fmt.Errorf("%w: %s", ErrEncoding, name)
	case strings.TrimSpace(string(data)) == "":
		return "", fmt.Errorf("%w: %s", ErrBlank, name)
	}

	return string(data), nil
}

// Filter keeps the names present in subset, preserving their order. A nil
// subset keeps every name.
func Filter(names, subset []string) []string {
	if subset == nil {
		return names
	}

	want := make(map[string]bool, len(subset))
	for _, s := range subset {
		want[s] = true
	}

	kept := make([]string, 0, len(subset))
	for _, n := range names {
		if want[n] {
			kept = append(kept, n)
		}
	}
	return kept
}

func hasExtension(name, ext string) bool {
	return ext == "" || strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext))
}

func validName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
