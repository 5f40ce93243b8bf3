package explore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/burrow/pkg/store"
	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

func TestBuildFileRow(t *testing.T) {
	entry := &tracker.Entry{
		Digest: types.ComputeDigest([]byte("archive bytes")),
		Size:   512,
		Paths:  []string{"/data/a.zip", "/data/copy/a.zip"},
		Metadata: map[string]any{
			types.MetaType:             "zip",
			types.MetaTypeMIME:         "application/zip",
			types.MetaExtension:        "zip",
			types.MetaIsArchive:        true,
			types.MetaExtractedSize:    int64(4096),
			types.MetaCompressionRatio: 0.125,
			types.MetaEncryptionStatus: types.EncryptionNone,
			types.MetaExtracted:        true,
		},
	}

	warningsByPath := map[string][]types.Warning{
		"/data/a.zip":      {{Kind: types.WarnMaxDepth, Path: "/data/a.zip"}},
		"/data/copy/a.zip": {{Kind: types.WarnDeleteFailed, Path: "/data/copy/a.zip"}},
	}

	row := buildFileRow(entry, warningsByPath)

	if row.Digest != entry.Digest.Hex() {
		t.Errorf("expected digest %s, got %s", entry.Digest.Hex(), row.Digest)
	}
	if row.TypeLabel != "zip" {
		t.Errorf("expected type 'zip', got '%s'", row.TypeLabel)
	}
	if row.MIME != "application/zip" {
		t.Errorf("expected MIME 'application/zip', got '%s'", row.MIME)
	}
	if !row.IsArchive {
		t.Error("expected IsArchive")
	}
	if row.Encryption != "none" {
		t.Errorf("expected encryption 'none', got '%s'", row.Encryption)
	}
	if row.Outcome != "extracted" {
		t.Errorf("expected outcome 'extracted', got '%s'", row.Outcome)
	}
	if len(row.Warnings) != 2 {
		t.Fatalf("expected 2 warnings collected across paths, got %d", len(row.Warnings))
	}
	// Warnings follow path order
	if row.Warnings[0].Kind != types.WarnMaxDepth {
		t.Errorf("expected first warning from first path, got %s", row.Warnings[0].Kind)
	}
	if row.primaryPath() != "/data/a.zip" {
		t.Errorf("expected primary path '/data/a.zip', got '%s'", row.primaryPath())
	}
}

func TestBuildFileRowPlain(t *testing.T) {
	entry := &tracker.Entry{
		Digest: types.ComputeDigest([]byte("readme")),
		Size:   6,
		Paths:  []string{"/data/README"},
		Metadata: map[string]any{
			types.MetaType:      "data",
			types.MetaTypeMIME:  "application/octet-stream",
			types.MetaIsArchive: false,
		},
	}

	row := buildFileRow(entry, nil)

	if row.IsArchive {
		t.Error("expected plain file")
	}
	if row.class() != "plain" {
		t.Errorf("expected class 'plain', got '%s'", row.class())
	}
	if row.Encryption != "-" {
		t.Errorf("expected encryption '-', got '%s'", row.Encryption)
	}
	if row.Outcome != "-" {
		t.Errorf("expected outcome '-', got '%s'", row.Outcome)
	}
	if len(row.Warnings) != 0 {
		t.Errorf("expected no warnings, got %d", len(row.Warnings))
	}
}

func TestBuildFileRowOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		expected string
	}{
		{
			name:     "skipped archive has no extraction flag",
			metadata: map[string]any{types.MetaIsArchive: true},
			expected: "skipped",
		},
		{
			name:     "extracted",
			metadata: map[string]any{types.MetaIsArchive: true, types.MetaExtracted: true},
			expected: "extracted",
		},
		{
			name:     "failed",
			metadata: map[string]any{types.MetaIsArchive: true, types.MetaExtracted: false},
			expected: "failed",
		},
	}

	for _, tt := range tests {
		entry := &tracker.Entry{Paths: []string{"/x"}, Metadata: tt.metadata}
		row := buildFileRow(entry, nil)
		if row.Outcome != tt.expected {
			t.Errorf("%s: expected outcome %q, got %q", tt.name, tt.expected, row.Outcome)
		}
	}
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "burrow.db")

	s, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	older := store.NewRun("/data/older")
	older.StartedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older.Complete([]tracker.Entry{{
		Digest:   types.ComputeDigest([]byte("old")),
		Size:     3,
		Paths:    []string{"/data/older/notes.txt"},
		Metadata: map[string]any{types.MetaIsArchive: false},
	}}, nil)
	if err := s.SaveRun(older); err != nil {
		t.Fatalf("saving older run: %v", err)
	}

	newer := store.NewRun("/data/newer")
	newer.StartedAt = time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	newer.Complete([]tracker.Entry{{
		Digest: types.ComputeDigest([]byte("new")),
		Size:   3,
		Paths:  []string{"/data/newer/a.tar"},
		Metadata: map[string]any{
			types.MetaIsArchive: true,
			types.MetaExtracted: true,
		},
	}}, []types.Warning{
		{Kind: types.WarnMaxDepth, Message: "depth limit", Path: "/data/newer/a.tar"},
		{Kind: types.WarnMissingArchiver, Message: "unrar not on PATH"},
	})
	if err := s.SaveRun(newer); err != nil {
		t.Fatalf("saving newer run: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	// A workspace directory resolves to the database file inside it, and an
	// empty run ID selects the most recently started run.
	data, err := loadData(dir, "")
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}
	defer data.close()

	if data.run.ID != newer.ID {
		t.Errorf("expected latest run %s, got %s", newer.ID, data.run.ID)
	}
	if len(data.files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(data.files))
	}
	if data.files[0].Outcome != "extracted" {
		t.Errorf("expected outcome 'extracted', got '%s'", data.files[0].Outcome)
	}
	if len(data.files[0].Warnings) != 1 {
		t.Errorf("expected 1 warning attached to the file, got %d", len(data.files[0].Warnings))
	}
	if len(data.unattached) != 1 {
		t.Errorf("expected 1 pathless warning, got %d", len(data.unattached))
	}

	// An explicit run ID and a direct file path both work.
	byID, err := loadData(dbPath, older.ID)
	if err != nil {
		t.Fatalf("loadData by ID: %v", err)
	}
	defer byID.close()

	if byID.run.ID != older.ID {
		t.Errorf("expected run %s, got %s", older.ID, byID.run.ID)
	}
	if len(byID.files) != 1 || byID.files[0].class() != "plain" {
		t.Errorf("expected the older run's plain file")
	}
}

func TestLoadDataNoRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "burrow.db")

	s, err := store.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	if _, err := loadData(dbPath, ""); err == nil {
		t.Error("expected error for store with no runs")
	}
}

func TestRenderOutcome(t *testing.T) {
	// Just ensure these don't panic
	renderOutcome("extracted")
	renderOutcome("failed")
	renderOutcome("skipped")
	renderOutcome("-")
}

func TestRenderEncryption(t *testing.T) {
	// Just ensure these don't panic
	renderEncryption("none")
	renderEncryption("partial")
	renderEncryption("all")
	renderEncryption("-")
}

func TestRenderKindBadge(t *testing.T) {
	// Just ensure every kind renders without panicking
	for _, k := range types.WarningKinds() {
		renderKindBadge(k)
	}
}
