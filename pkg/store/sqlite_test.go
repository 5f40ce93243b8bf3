package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "burrow.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLiteRoundTrip(t *testing.T) {
	s, _ := newTestSQLite(t)

	want := sampleRun("/in")
	require.NoError(t, s.SaveRun(want))

	got, err := s.Run(want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Root, got.Root)
	assert.True(t, got.StartedAt.Equal(want.StartedAt))
	assert.True(t, got.FinishedAt.Equal(want.FinishedAt))
	assert.Equal(t, want.FileCount, got.FileCount)
	assert.Equal(t, want.TotalSize, got.TotalSize)
	assert.Equal(t, want.WarningCount, got.WarningCount)

	// Entry order, path order, metadata value types, and warning order all
	// survive the database.
	assert.Equal(t, want.Files, got.Files)
	assert.Equal(t, want.Warnings, got.Warnings)
}

func TestSQLiteRunsNewestFirst(t *testing.T) {
	s, _ := newTestSQLite(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		run := sampleRun("/in")
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.SaveRun(run))
		ids = append(ids, run.ID)
	}

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, ids[0], runs[2].ID)
	assert.Nil(t, runs[0].Files)
}

func TestSQLiteSubSecondOrdering(t *testing.T) {
	s, _ := newTestSQLite(t)

	// A whole-second timestamp must sort between its fractional neighbors.
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	offsets := []time.Duration{500 * time.Millisecond, 0, 900 * time.Millisecond}
	byStart := make(map[time.Duration]string)
	for _, off := range offsets {
		run := sampleRun("/in")
		run.StartedAt = base.Add(off)
		require.NoError(t, s.SaveRun(run))
		byStart[off] = run.ID
	}

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, byStart[900*time.Millisecond], runs[0].ID)
	assert.Equal(t, byStart[500*time.Millisecond], runs[1].ID)
	assert.Equal(t, byStart[0], runs[2].ID)
}

func TestSQLiteNotFound(t *testing.T) {
	s, _ := newTestSQLite(t)

	_, err := s.Run("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Files("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Warnings("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDuplicateSave(t *testing.T) {
	s, _ := newTestSQLite(t)

	run := sampleRun("/in")
	require.NoError(t, s.SaveRun(run))
	assert.Error(t, s.SaveRun(run))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	s, path := newTestSQLite(t)

	want := sampleRun("/in")
	require.NoError(t, s.SaveRun(want))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Run(want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Files, got.Files)
}

func TestSQLiteEmptyRun(t *testing.T) {
	s, _ := newTestSQLite(t)

	run := NewRun("/in")
	run.Complete(nil, nil)
	require.NoError(t, s.SaveRun(run))

	got, err := s.Run(run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Files)
	assert.Empty(t, got.Warnings)
	assert.Zero(t, got.FileCount)
}
