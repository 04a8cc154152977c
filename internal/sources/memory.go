package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
)

// Memory is a Source over documents held in memory, such as documents
// submitted inline with a processing request.
type Memory struct {
	files map[string][]byte
}

func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string][]byte, len(files))}
	for name, content := range files {
		m.files[name] = []byte(content)
	}
	return m
}

func (m *Memory) Location() string { return "memory" }

func (m *Memory) List(ctx context.Context) ([]string, error) {
	return slices.Sorted(maps.Keys(m.files)), nil
}

func (m *Memory) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
