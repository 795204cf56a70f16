package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Error reports a failure to load or save a document. It is fatal to a run.
type Error struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("document %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Load reads and parses a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	d, err := Parse(data)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Err: err}
	}
	return d, nil
}

// Save writes the document to disk, creating parent directories as needed.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return &Error{Op: "save", Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &Error{Op: "save", Path: path, Err: fmt.Errorf("creating directory: %w", err)}
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return &Error{Op: "save", Path: path, Err: err}
	}
	return nil
}

// FileStore loads documents from and saves them to a single path.
type FileStore struct {
	Path string
}

// Load implements the orchestrator Source contract.
func (f FileStore) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "load", Path: f.Path, Err: err}
	}
	return Load(f.Path)
}

// Save implements the orchestrator Sink contract.
func (f FileStore) Save(ctx context.Context, d *Document) error {
	if err := ctx.Err(); err != nil {
		return &Error{Op: "save", Path: f.Path, Err: err}
	}
	return d.Save(f.Path)
}
