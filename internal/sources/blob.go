package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/JaimeStill/docket/pkg/storage"
)

// Blob is a Source over the blobs under a container prefix.
type Blob struct {
	store    storage.System
	prefix   string
	ext      string
	pageSize int32
}

// NewBlob creates a Source listing blobs under prefix. Names are returned
// relative to prefix.
func NewBlob(store storage.System, prefix, ext string, pageSize int32) *Blob {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if pageSize <= 0 {
		pageSize = storage.MaxListCap
	}
	return &Blob{store: store, prefix: prefix, ext: ext, pageSize: pageSize}
}

func (b *Blob) Location() string { return "blob:" + b.prefix }

func (b *Blob) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	marker := ""
	for {
		page, err := b.store.List(ctx, b.prefix, marker, b.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", b.Location(), err)
		}

		for _, blob := range page.Blobs {
			name := strings.TrimPrefix(blob.Key, b.prefix)
			if name == "" || strings.Contains(name, "/") || !hasExtension(name, b.ext) {
				continue
			}
			names = append(names, name)
		}

		if page.NextMarker == "" {
			break
		}
		marker = page.NextMarker
	}

	slices.Sort(names)
	return names, nil
}

func (b *Blob) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if strings.HasSuffix(name, "/") {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, name)
	}

	result, err := b.store.Download(ctx, b.prefix+name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return result.Body, nil
}
