// Package source fetches the raw registration export and caches its bytes.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned when the export does not exist yet. Callers treat it as an
// empty export rather than a failure.
var ErrNotFound = errors.New("registration export not found")

// Source returns the current CSV export as raw bytes.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Name identifies the source in logs, e.g. "file:data/guests.csv".
	Name() string
}

// FileSource reads the export from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the whole file.
func (f *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return data, nil
}

func (f *FileSource) Name() string { return "file:" + f.path }
