package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// MemoryStore implements Store with in-memory structures. It backs the
// ":memory:" DSN: tests and one-shot runs that never need the record to
// outlive the process.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// SaveRun stores a deep copy of run.
func (m *MemoryStore) SaveRun(run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("store: run %s already saved", run.ID)
	}
	m.runs[run.ID] = copyRun(run)
	return nil
}

// Run retrieves one run with files and warnings loaded.
func (m *MemoryStore) Run(id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyRun(run), nil
}

// Runs retrieves headers for every stored run, most recently started first.
func (m *MemoryStore) Runs() ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		header := copyRun(run)
		header.Files = nil
		header.Warnings = nil
		out = append(out, header)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Files retrieves the file inventory of one run.
func (m *MemoryStore) Files(runID string) ([]tracker.Entry, error) {
	run, err := m.Run(runID)
	if err != nil {
		return nil, err
	}
	return run.Files, nil
}

// Warnings retrieves the warnings of one run.
func (m *MemoryStore) Warnings(runID string) ([]types.Warning, error) {
	run, err := m.Run(runID)
	if err != nil {
		return nil, err
	}
	return run.Warnings, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// copyRun deep-copies a run so callers never share slices or maps with the
// store's internal state.
func copyRun(run *Run) *Run {
	out := *run

	if run.Files != nil {
		out.Files = make([]tracker.Entry, len(run.Files))
		for i, f := range run.Files {
			entry := f
			entry.Paths = append([]string(nil), f.Paths...)
			entry.Metadata = make(map[string]any, len(f.Metadata))
			for k, v := range f.Metadata {
				entry.Metadata[k] = v
			}
			out.Files[i] = entry
		}
	}
	if run.Warnings != nil {
		out.Warnings = append([]types.Warning(nil), run.Warnings...)
	}
	return &out
}
