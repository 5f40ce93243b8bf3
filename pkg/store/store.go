// Package store persists completed runs: the run header, the digest-indexed
// file inventory, and the ordered warning list. Three backends share one
// interface so a workspace can sit on sqlite, a server deployment on
// postgres, and tests on memory.
package store

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// ErrNotFound reports a run ID with no stored record.
var ErrNotFound = errors.New("run not found")

// Run is the persisted record of one explode invocation. Header fields are
// always populated; Files and Warnings are loaded only by Run, never by Runs.
type Run struct {
	ID           string    `json:"id"`
	Root         string    `json:"root"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	FileCount    int       `json:"file_count"`
	TotalSize    int64     `json:"total_size"`
	WarningCount int       `json:"warning_count"`

	Files    []tracker.Entry `json:"files,omitempty"`
	Warnings []types.Warning `json:"warnings,omitempty"`
}

// NewRun stamps a fresh run record for the given input root.
func NewRun(root string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
}

// Complete marks the run finished and attaches what the engine produced,
// deriving the header totals.
func (r *Run) Complete(files []tracker.Entry, warnings []types.Warning) {
	r.FinishedAt = time.Now().UTC()
	r.Files = files
	r.Warnings = warnings
	r.FileCount = len(files)
	r.WarningCount = len(warnings)

	r.TotalSize = 0
	for _, f := range files {
		r.TotalSize += f.Size
	}
}

// Store provides persistence for runs. Implementations must preserve file
// entry order, per-entry path order, and warning order exactly as saved.
type Store interface {
	// SaveRun stores a complete run. The run ID must be unused.
	SaveRun(run *Run) error

	// Run retrieves one run with its files and warnings loaded.
	Run(id string) (*Run, error)

	// Runs retrieves all run headers, most recently started first.
	Runs() ([]*Run, error)

	// Files retrieves the file inventory of one run in first-seen order.
	Files(runID string) ([]tracker.Entry, error)

	// Warnings retrieves the warnings of one run in decision order.
	Warnings(runID string) ([]types.Warning, error)

	// Close releases the backend.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// DSN is ":memory:" for the in-memory store, a postgres:// or
	// postgresql:// URL for postgres, and a file path for sqlite.
	DSN string
}

// New creates a Store for the configured DSN.
func New(cfg Config) (Store, error) {
	switch {
	case cfg.DSN == "":
		return nil, errors.New("store: dsn is required")
	case cfg.DSN == ":memory:":
		return NewMemory(), nil
	case strings.HasPrefix(cfg.DSN, "postgres://"), strings.HasPrefix(cfg.DSN, "postgresql://"):
		return NewPostgres(cfg.DSN)
	default:
		return NewSQLite(cfg.DSN)
	}
}

func validateRun(run *Run) error {
	if run == nil {
		return errors.New("store: run is nil")
	}
	if run.ID == "" {
		return errors.New("store: run id is required")
	}
	if run.Root == "" {
		return errors.New("store: run root is required")
	}
	return nil
}
