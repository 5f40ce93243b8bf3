package burrow

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/burrow/pkg/types"
)

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, zipBytes(t, entries), 0o644))
}

func hasWarning(warnings []Warning, kind WarningKind) bool {
	for _, w := range warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	exp, err := New()
	require.NoError(t, err)
	defer exp.Close()

	// Without a workspace there is nothing to persist to
	assert.Nil(t, exp.Store())

	// The in-process fallback always covers zip
	assert.Contains(t, exp.SupportedExtensions(), "zip")

	// Tool discovery never fails construction, only reports gaps
	for _, w := range exp.ToolWarnings() {
		assert.Equal(t, types.WarnMissingArchiver, w.Kind)
	}
}

func TestNewWithWorkspace(t *testing.T) {
	ws := filepath.Join(t.TempDir(), "triage.ws")

	exp, err := New(WithWorkspace(ws))
	require.NoError(t, err)
	defer exp.Close()

	assert.NotNil(t, exp.Store())
	assert.DirExists(t, filepath.Join(ws, "extracted"))
	assert.DirExists(t, filepath.Join(ws, "scratch"))
}

func TestExplodePlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	exp, err := New(WithWorkspace(filepath.Join(dir, "ws")))
	require.NoError(t, err)
	defer exp.Close()

	res, err := exp.Explode(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, res.Files, 1)
	assert.Empty(t, res.Warnings)

	f := res.Files[0]
	assert.Equal(t, types.ComputeDigest([]byte("plain text")), f.Digest)
	assert.Equal(t, int64(10), f.Size)
	assert.Contains(t, f.Paths, path)
}

func TestExplodeZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bundle.zip")
	writeZip(t, zipPath, map[string]string{
		"docs/readme.txt": "hello",
		"data.bin":        "world",
	})

	ws := filepath.Join(dir, "ws")
	exp, err := New(WithWorkspace(ws), WithMinDiskFree(0))
	require.NoError(t, err)
	defer exp.Close()

	res, err := exp.Explode(context.Background(), zipPath)
	require.NoError(t, err)

	// Root archive plus its two members
	require.Len(t, res.Files, 3)

	root := res.Files[0]
	assert.Equal(t, true, root.Metadata[types.MetaIsArchive])
	assert.Equal(t, true, root.Metadata[types.MetaExtracted])

	// Extraction output lands inside the workspace
	digest, err := types.DigestFile(zipPath)
	require.NoError(t, err)
	extracted := filepath.Join(ws, "extracted", digest.Hex(), "docs", "readme.txt")
	content, err := os.ReadFile(extracted)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	// The call was persisted as a run
	runs, err := exp.Store().Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, zipPath, runs[0].Root)
	assert.Equal(t, 3, runs[0].FileCount)
}

func TestExplodeMaxDepth(t *testing.T) {
	dir := t.TempDir()
	inner := zipBytes(t, map[string]string{"leaf.txt": "buried"})
	outerPath := filepath.Join(dir, "outer.zip")
	writeZip(t, outerPath, map[string]string{"inner.zip": string(inner)})

	exp, err := New(
		WithWorkspace(filepath.Join(dir, "ws")),
		WithMinDiskFree(0),
		WithMaxDepth(2),
	)
	require.NoError(t, err)
	defer exp.Close()

	res, err := exp.Explode(context.Background(), outerPath)
	require.NoError(t, err)

	// The outer archive is expanded but the nested one hits the depth cap,
	// so the leaf is never reached
	require.Len(t, res.Files, 2)
	assert.Equal(t, true, res.Files[0].Metadata[types.MetaExtracted])
	assert.True(t, hasWarning(res.Warnings, types.WarnMaxDepth))
}

func TestExplodeArchiveSizeBudget(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "big.zip")
	writeZip(t, zipPath, map[string]string{"payload.txt": "0123456789"})

	exp, err := New(
		WithWorkspace(filepath.Join(dir, "ws")),
		WithMinDiskFree(0),
		WithMaxArchiveSize(1),
	)
	require.NoError(t, err)
	defer exp.Close()

	res, err := exp.Explode(context.Background(), zipPath)
	require.NoError(t, err)

	// The archive declares more than the budget allows, so only the
	// archive itself is tracked
	require.Len(t, res.Files, 1)
	assert.True(t, hasWarning(res.Warnings, types.WarnMaxArchiveSizeBytes))
	assert.NotEqual(t, true, res.Files[0].Metadata[types.MetaExtracted])
}

func TestExplodeDeleteAfterExtraction(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "bundle.zip")
	writeZip(t, zipPath, map[string]string{"a.txt": "contents"})

	exp, err := New(
		WithWorkspace(filepath.Join(dir, "ws")),
		WithMinDiskFree(0),
		WithDeleteAfterExtraction(),
	)
	require.NoError(t, err)
	defer exp.Close()

	res, err := exp.Explode(context.Background(), zipPath)
	require.NoError(t, err)

	assert.Equal(t, true, res.Files[0].Metadata[types.MetaDeleted])
	assert.NoFileExists(t, zipPath)
}

func TestExplodeMissingFile(t *testing.T) {
	dir := t.TempDir()

	exp, err := New(WithWorkspace(filepath.Join(dir, "ws")))
	require.NoError(t, err)
	defer exp.Close()

	_, err = exp.Explode(context.Background(), filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}

func TestExplodeCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	exp, err := New(WithWorkspace(filepath.Join(dir, "ws")))
	require.NoError(t, err)
	defer exp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exp.Explode(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExplodeWithoutWorkspace(t *testing.T) {
	t.Chdir(t.TempDir())

	path := "notes.txt"
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	exp, err := New()
	require.NoError(t, err)
	defer exp.Close()

	res, err := exp.Explode(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	// No store attached, nothing persisted
	assert.Nil(t, exp.Store())
}

func TestExplodeSequentialCalls(t *testing.T) {
	dir := t.TempDir()

	exp, err := New(WithWorkspace(filepath.Join(dir, "ws")), WithMinDiskFree(0))
	require.NoError(t, err)
	defer exp.Close()

	for i, name := range []string{"one.txt", "two.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o644))

		res, err := exp.Explode(context.Background(), path)
		require.NoError(t, err, "call %d should succeed", i)

		// Each call gets a fresh engine, so dedup state does not leak
		// across calls
		assert.Len(t, res.Files, 1)
	}

	runs, err := exp.Store().Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestWithStoreMemoryDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	exp, err := New(
		WithWorkspace(filepath.Join(dir, "ws")),
		WithStore(":memory:"),
	)
	require.NoError(t, err)
	defer exp.Close()

	_, err = exp.Explode(context.Background(), path)
	require.NoError(t, err)

	runs, err := exp.Store().Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)

	// Runs persist the tool gaps alongside the engine warnings
	run, err := exp.Store().Run(runs[0].ID)
	require.NoError(t, err)
	for _, w := range run.Warnings {
		if w.Kind == types.WarnMissingArchiver {
			assert.Contains(t, w.Message, "could not find")
		}
	}
}

func TestWithConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 7

	exp, err := New(WithConfig(cfg), WithMaxTotalSize(1<<20))
	require.NoError(t, err)
	defer exp.Close()

	// Later options override individual fields of the supplied config
	assert.Equal(t, 7, exp.cfg.MaxDepth)
	assert.Equal(t, int64(1<<20), exp.cfg.MaxTotalSize)
}
