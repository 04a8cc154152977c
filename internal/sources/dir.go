package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
)

// FS lists the top-level files of a file system that carry the configured
// extension.
type FS struct {
	fsys     fs.FS
	ext      string
	location string
}

// NewDir creates a Source over the files in dir.
func NewDir(dir, ext string) *FS {
	return NewFS(os.DirFS(dir), ext, dir)
}

// NewFS creates a Source over fsys. An empty ext lists every file.
func NewFS(fsys fs.FS, ext, location string) *FS {
	return &FS{fsys: fsys, ext: ext, location: location}
}

func (s *FS) Location() string { return s.location }

func (s *FS) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.location, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasExtension(e.Name(), s.ext) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (s *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, name)
	}

	f, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}
