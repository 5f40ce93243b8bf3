package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsideDir(t *testing.T) {
	dir := t.TempDir()

	assert.True(t, insideDir(dir, dir))
	assert.True(t, insideDir(filepath.Join(dir, "a.zip"), dir))
	assert.True(t, insideDir(filepath.Join(dir, "nested", "deep", "b.tar"), dir))
	assert.False(t, insideDir(filepath.Join(dir, "..", "sibling"), dir))
	assert.False(t, insideDir(filepath.Dir(dir), dir))
}

func TestRunWatch_RejectsNonPositiveSettle(t *testing.T) {
	watchSettle = 0
	defer func() { watchSettle = 500 * time.Millisecond }()

	cmd := &cobra.Command{}
	err := runWatch(cmd, []string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settle")
}

func TestRunWatch_RejectsMissingDirectory(t *testing.T) {
	resetExplodeState(t, "unused")
	watchSettle = 500 * time.Millisecond
	watchWorkspace = filepath.Join(t.TempDir(), "ws")
	watchStoreDSN = ""

	cmd := &cobra.Command{}
	err := runWatch(cmd, []string{filepath.Join(t.TempDir(), "does-not-exist")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}
