package explore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/burrow/pkg/store"
	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// exploreData holds all loaded data for the TUI.
type exploreData struct {
	store store.Store
	run   *store.Run
	files []*fileRow

	// Warnings carrying no path (tool discovery notes and the like) belong
	// to no file row; they surface in the status bar count only.
	unattached []types.Warning
}

// loadData opens a store and loads one run's inventory. The dsn may be a
// workspace directory (resolved to the database file inside it), a database
// file path, or a postgres URL. An empty runID selects the most recently
// started run.
func loadData(dsn, runID string) (*exploreData, error) {
	if info, err := os.Stat(dsn); err == nil && info.IsDir() {
		dsn = filepath.Join(dsn, "burrow.db")
	}

	s, err := store.New(store.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if runID == "" {
		runs, err := s.Runs()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		if len(runs) == 0 {
			s.Close()
			return nil, fmt.Errorf("store %s has no runs", dsn)
		}
		runID = runs[0].ID // most recently started
	}

	run, err := s.Run(runID)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	warningsByPath := make(map[string][]types.Warning)
	var unattached []types.Warning
	for _, w := range run.Warnings {
		if w.Path == "" {
			unattached = append(unattached, w)
			continue
		}
		warningsByPath[w.Path] = append(warningsByPath[w.Path], w)
	}

	rows := make([]*fileRow, 0, len(run.Files))
	for i := range run.Files {
		rows = append(rows, buildFileRow(&run.Files[i], warningsByPath))
	}

	return &exploreData{
		store:      s,
		run:        run,
		files:      rows,
		unattached: unattached,
	}, nil
}

// buildFileRow denormalizes one tracked entry into the TUI view model.
func buildFileRow(entry *tracker.Entry, warningsByPath map[string][]types.Warning) *fileRow {
	row := &fileRow{
		Digest:   entry.Digest.Hex(),
		Size:     entry.Size,
		Paths:    entry.Paths,
		Metadata: entry.Metadata,
	}

	md := entry.Metadata
	row.TypeLabel, _ = md[types.MetaType].(string)
	row.MIME, _ = md[types.MetaTypeMIME].(string)
	row.Extension, _ = md[types.MetaExtension].(string)
	row.IsArchive, _ = md[types.MetaIsArchive].(bool)
	row.Deleted, _ = md[types.MetaDeleted].(bool)

	row.Encryption = "-"
	if status, ok := md[types.MetaEncryptionStatus].(types.EncryptionStatus); ok {
		row.Encryption = strings.ToLower(string(status))
	}

	if !row.IsArchive {
		row.Outcome = "-"
	} else if extracted, ok := md[types.MetaExtracted].(bool); !ok {
		row.Outcome = "skipped"
	} else if extracted {
		row.Outcome = "extracted"
	} else {
		row.Outcome = "failed"
	}

	for _, p := range entry.Paths {
		row.Warnings = append(row.Warnings, warningsByPath[p]...)
	}

	return row
}

// close closes the underlying store.
func (d *exploreData) close() error {
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}
