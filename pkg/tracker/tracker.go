// Package tracker maintains the content-addressed inventory of one
// extraction run: every distinct digest seen, its size, the metadata the
// policy engine attaches, and every path observed holding that content.
package tracker

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/burrow/pkg/types"
)

// ErrSizeMismatch reports a digest registered twice with differing sizes.
// That can only mean a hashing bug or an adversarial collision, so the run
// must abort rather than continue with a poisoned inventory.
var ErrSizeMismatch = errors.New("digest size mismatch")

// ErrUntracked reports an operation against a digest that was never tracked.
var ErrUntracked = errors.New("digest not tracked")

// Entry is the externally visible record for one digest.
type Entry struct {
	Digest   types.Digest   `json:"digest"`
	Size     int64          `json:"size"`
	Metadata map[string]any `json:"metadata"`
	Paths    []string       `json:"paths"`
}

// Tracker accumulates entries for a single run. It is owned by exactly one
// policy engine and mutated only from its recursive call stack, so it does
// no locking. It performs no I/O.
type Tracker struct {
	entries map[types.Digest]*Entry
	order   []types.Digest
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[types.Digest]*Entry)}
}

// Track registers digest with its size on first sight. Re-tracking the same
// digest with the same size is a no-op; a differing size returns
// ErrSizeMismatch.
func (t *Tracker) Track(digest types.Digest, size int64) error {
	if e, ok := t.entries[digest]; ok {
		if e.Size != size {
			return fmt.Errorf("%w: %s recorded with size %d, observed %d", ErrSizeMismatch, digest, e.Size, size)
		}
		return nil
	}

	t.entries[digest] = &Entry{
		Digest:   digest,
		Size:     size,
		Metadata: make(map[string]any),
	}
	t.order = append(t.order, digest)
	return nil
}

// AddPath records another filesystem location holding this content.
// Idempotent: a path already present is not appended again.
func (t *Tracker) AddPath(digest types.Digest, path string) error {
	e, ok := t.entries[digest]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUntracked, digest)
	}

	for _, p := range e.Paths {
		if p == path {
			return nil
		}
	}
	e.Paths = append(e.Paths, path)
	return nil
}

// SetMetadata attaches key=value to the digest's entry, overwriting any
// previous value for key.
func (t *Tracker) SetMetadata(digest types.Digest, key string, value any) error {
	e, ok := t.entries[digest]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUntracked, digest)
	}

	e.Metadata[key] = value
	return nil
}

// Metadata returns an independent copy of the digest's metadata map, so
// callers cannot mutate tracker state through it.
func (t *Tracker) Metadata(digest types.Digest) (map[string]any, error) {
	e, ok := t.entries[digest]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUntracked, digest)
	}

	return copyMetadata(e.Metadata), nil
}

// Paths returns a copy of the digest's path list in insertion order.
func (t *Tracker) Paths(digest types.Digest) ([]string, error) {
	e, ok := t.entries[digest]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUntracked, digest)
	}

	paths := make([]string, len(e.Paths))
	copy(paths, e.Paths)
	return paths, nil
}

// Has reports whether digest is tracked.
func (t *Tracker) Has(digest types.Digest) bool {
	_, ok := t.entries[digest]
	return ok
}

// Size returns the recorded size for digest.
func (t *Tracker) Size(digest types.Digest) (int64, bool) {
	e, ok := t.entries[digest]
	if !ok {
		return 0, false
	}
	return e.Size, true
}

// Len returns the number of distinct digests tracked.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// TotalTrackedSize sums the sizes of all distinct digests. Duplicate content
// discovered at many paths counts once, which is what makes the cumulative
// extraction budget dedup-aware.
func (t *Tracker) TotalTrackedSize() int64 {
	var total int64
	for _, e := range t.entries {
		total += e.Size
	}
	return total
}

// Snapshot returns deep copies of all entries in first-seen order.
func (t *Tracker) Snapshot() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, digest := range t.order {
		e := t.entries[digest]
		paths := make([]string, len(e.Paths))
		copy(paths, e.Paths)
		out = append(out, Entry{
			Digest:   e.Digest,
			Size:     e.Size,
			Metadata: copyMetadata(e.Metadata),
			Paths:    paths,
		})
	}
	return out
}

// Reset clears all state. Called once at the start of each top-level run.
func (t *Tracker) Reset() {
	t.entries = make(map[types.Digest]*Entry)
	t.order = nil
}

func copyMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
