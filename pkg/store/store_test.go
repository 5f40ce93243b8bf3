package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// sampleRun builds a run with the metadata shapes the engine actually
// records, so round-trip tests exercise every value type.
func sampleRun(root string) *Run {
	run := NewRun(root)
	run.StartedAt = time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)

	archive := tracker.Entry{
		Digest: types.ComputeDigest([]byte("archive bytes")),
		Size:   13,
		Metadata: map[string]any{
			types.MetaType:             "Zip archive data",
			types.MetaTypeMIME:         "application/zip",
			types.MetaExtension:        "zip",
			types.MetaIsArchive:        true,
			types.MetaExtracted:        true,
			types.MetaExtractedSize:    int64(4096),
			types.MetaCompressionRatio: 315.0769,
			types.MetaEncryptedCount:   1,
			types.MetaUnencryptedCount: 2,
			types.MetaTotalEntryCount:  3,
			types.MetaEncryptionStatus: types.EncryptionPartial,
		},
		Paths: []string{"/in/bundle.zip"},
	}
	plain := tracker.Entry{
		Digest: types.ComputeDigest([]byte("plain bytes")),
		Size:   11,
		Metadata: map[string]any{
			types.MetaType:      "ASCII text",
			types.MetaTypeMIME:  "text/plain",
			types.MetaExtension: "txt",
			types.MetaIsArchive: false,
		},
		Paths: []string{"extracted/aa/readme.txt", "extracted/bb/readme.txt"},
	}

	run.Complete(
		[]tracker.Entry{archive, plain},
		[]types.Warning{
			types.NewWarning(types.WarnPasswordProtectedDetected, "/in/bundle.zip",
				"archive appears to be partially password protected"),
			types.NewWarning(types.WarnMaxDepth, "extracted/aa/deep.zip",
				"not extracted; max depth 3 reached"),
		},
	)
	run.FinishedAt = run.StartedAt.Add(3 * time.Second)
	return run
}

func TestNewDispatch(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := New(Config{DSN: ":memory:"})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := New(Config{DSN: filepath.Join(t.TempDir(), "burrow.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("empty dsn", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})
}

func TestNewRun(t *testing.T) {
	a := NewRun("/in")
	b := NewRun("/in")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "/in", a.Root)
	assert.False(t, a.StartedAt.IsZero())
}

func TestRunComplete(t *testing.T) {
	run := NewRun("/in")
	run.Complete(
		[]tracker.Entry{
			{Digest: types.ComputeDigest([]byte("a")), Size: 100},
			{Digest: types.ComputeDigest([]byte("b")), Size: 42},
		},
		[]types.Warning{types.NewWarning(types.WarnMaxDepth, "/in/x.zip", "stopped")},
	)

	assert.Equal(t, 2, run.FileCount)
	assert.Equal(t, int64(142), run.TotalSize)
	assert.Equal(t, 1, run.WarningCount)
	assert.False(t, run.FinishedAt.IsZero())
}

func TestMetadataRoundTrip(t *testing.T) {
	in := map[string]any{
		types.MetaType:             "gzip compressed data",
		types.MetaIsArchive:        true,
		types.MetaExtractedSize:    int64(1 << 33),
		types.MetaCompressionRatio: 0.0042,
		types.MetaEncryptedCount:   0,
		types.MetaUnencryptedCount: 7,
		types.MetaTotalEntryCount:  7,
		types.MetaEncryptionStatus: types.EncryptionNone,
	}

	encoded, err := encodeMetadata(in)
	require.NoError(t, err)

	out, err := decodeMetadata(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeMetadataRejectsGarbage(t *testing.T) {
	_, err := decodeMetadata("{not json")
	assert.Error(t, err)
}

func TestValidateRun(t *testing.T) {
	assert.Error(t, validateRun(nil))
	assert.Error(t, validateRun(&Run{Root: "/in"}))
	assert.Error(t, validateRun(&Run{ID: "abc"}))
	assert.NoError(t, validateRun(&Run{ID: "abc", Root: "/in"}))
}
