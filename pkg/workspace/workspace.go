// Package workspace manages the directory a burrow run operates in: the
// extraction area, a scratch area, and the store that keeps run records.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/burrow/pkg/store"
)

// DefaultName is the workspace directory created when the caller does not
// name one.
const DefaultName = "burrow.ws"

const (
	extractedDir = "extracted"
	scratchDir   = "scratch"
	databaseFile = "burrow.db"
)

// Workspace is an open workspace directory.
type Workspace struct {
	Path  string
	Store store.Store
}

// Options configures workspace behavior.
type Options struct {
	// StoreDSN overrides the sqlite database inside the workspace, for
	// ":memory:" runs or a shared postgres inventory.
	StoreDSN string
	// Clean empties the extraction and scratch areas before use.
	Clean bool
}

// Open opens or creates a workspace directory.
func Open(path string, opts Options) (*Workspace, error) {
	if path == "" {
		return nil, fmt.Errorf("workspace path is required")
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace directory: %w", err)
	}

	subdirs := []string{extractedDir, scratchDir}
	for _, subdir := range subdirs {
		full := filepath.Join(path, subdir)
		if opts.Clean {
			if err := os.RemoveAll(full); err != nil {
				return nil, fmt.Errorf("cleaning %s directory: %w", subdir, err)
			}
		}
		if err := os.MkdirAll(full, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", subdir, err)
		}
	}

	// The workspace holds extracted file content and run databases; nothing
	// in it belongs in version control.
	gitignorePath := filepath.Join(path, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("*\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}

	dsn := opts.StoreDSN
	if dsn == "" {
		dsn = filepath.Join(path, databaseFile)
	}
	s, err := store.New(store.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &Workspace{Path: path, Store: s}, nil
}

// ExtractRoot returns the directory archive contents are extracted under.
func (w *Workspace) ExtractRoot() string {
	return filepath.Join(w.Path, extractedDir)
}

// Scratch returns the directory for transient files, such as inputs staged
// by the stdio server.
func (w *Workspace) Scratch() string {
	return filepath.Join(w.Path, scratchDir)
}

// Close releases the workspace's store.
func (w *Workspace) Close() error {
	if w.Store != nil {
		return w.Store.Close()
	}
	return nil
}
