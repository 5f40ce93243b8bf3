package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/burrow/pkg/types"
)

func TestTrack_Idempotent(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("payload"))

	require.NoError(t, tr.Track(d, 7))
	require.NoError(t, tr.Track(d, 7))

	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, int64(7), tr.TotalTrackedSize())
}

func TestTrack_SizeMismatchIsFatal(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("payload"))

	require.NoError(t, tr.Track(d, 7))
	err := tr.Track(d, 8)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	// The original record wins
	size, ok := tr.Size(d)
	require.True(t, ok)
	assert.Equal(t, int64(7), size)
}

func TestTotalTrackedSize_Deduplicates(t *testing.T) {
	tr := New()
	a := types.ComputeDigest([]byte("a"))
	b := types.ComputeDigest([]byte("b"))

	require.NoError(t, tr.Track(a, 100))
	require.NoError(t, tr.Track(b, 50))
	// Same content surfacing at three locations
	require.NoError(t, tr.AddPath(a, "/in/one.zip"))
	require.NoError(t, tr.AddPath(a, "/in/two.zip"))
	require.NoError(t, tr.AddPath(a, "/in/three.zip"))

	assert.Equal(t, int64(150), tr.TotalTrackedSize())
}

func TestAddPath_Idempotent(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("x"))
	require.NoError(t, tr.Track(d, 1))

	require.NoError(t, tr.AddPath(d, "/a"))
	require.NoError(t, tr.AddPath(d, "/b"))
	require.NoError(t, tr.AddPath(d, "/a"))

	paths, err := tr.Paths(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, paths)
}

func TestAddPath_Untracked(t *testing.T) {
	tr := New()
	err := tr.AddPath(types.ComputeDigest([]byte("ghost")), "/a")
	assert.ErrorIs(t, err, ErrUntracked)
}

func TestMetadata_ReturnsCopy(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("x"))
	require.NoError(t, tr.Track(d, 1))
	require.NoError(t, tr.SetMetadata(d, types.MetaIsArchive, true))

	m, err := tr.Metadata(d)
	require.NoError(t, err)
	m[types.MetaIsArchive] = false
	m["injected"] = "nope"

	fresh, err := tr.Metadata(d)
	require.NoError(t, err)
	assert.Equal(t, true, fresh[types.MetaIsArchive])
	assert.NotContains(t, fresh, "injected")
}

func TestPaths_ReturnsCopy(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("x"))
	require.NoError(t, tr.Track(d, 1))
	require.NoError(t, tr.AddPath(d, "/a"))

	paths, err := tr.Paths(d)
	require.NoError(t, err)
	paths[0] = "/mutated"

	fresh, err := tr.Paths(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, fresh)
}

func TestSnapshot_FirstSeenOrder(t *testing.T) {
	tr := New()
	first := types.ComputeDigest([]byte("first"))
	second := types.ComputeDigest([]byte("second"))
	third := types.ComputeDigest([]byte("third"))

	require.NoError(t, tr.Track(first, 1))
	require.NoError(t, tr.Track(second, 2))
	require.NoError(t, tr.Track(third, 3))

	snap := tr.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, first, snap[0].Digest)
	assert.Equal(t, second, snap[1].Digest)
	assert.Equal(t, third, snap[2].Digest)
}

func TestSnapshot_Isolated(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("x"))
	require.NoError(t, tr.Track(d, 1))
	require.NoError(t, tr.AddPath(d, "/a"))
	require.NoError(t, tr.SetMetadata(d, types.MetaType, "Zip archive data"))

	snap := tr.Snapshot()
	snap[0].Metadata[types.MetaType] = "mutated"
	snap[0].Paths[0] = "/mutated"

	m, err := tr.Metadata(d)
	require.NoError(t, err)
	assert.Equal(t, "Zip archive data", m[types.MetaType])
	paths, err := tr.Paths(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, paths)
}

func TestReset(t *testing.T) {
	tr := New()
	d := types.ComputeDigest([]byte("x"))
	require.NoError(t, tr.Track(d, 1))

	tr.Reset()

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, int64(0), tr.TotalTrackedSize())
	assert.False(t, tr.Has(d))
	assert.Empty(t, tr.Snapshot())
}
