package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// timeLayout is RFC 3339 with a fixed-width fraction so the database's
// lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a sqlite database file. The modernc driver
// keeps the build CGO-free.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates a sqlite-backed store at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveRun stores a complete run in one transaction.
func (s *SQLiteStore) SaveRun(run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, root, started_at, finished_at, file_count, total_size, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Root,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.FileCount,
		run.TotalSize,
		run.WarningCount,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for ord, f := range run.Files {
		metadata, err := encodeMetadata(f.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO files (run_id, ord, digest, size, metadata_json) VALUES (?, ?, ?, ?, ?)",
			run.ID, ord, f.Digest, f.Size, metadata,
		); err != nil {
			return fmt.Errorf("inserting file: %w", err)
		}
		for i, p := range f.Paths {
			if _, err := tx.Exec(
				"INSERT INTO paths (run_id, digest, ord, path) VALUES (?, ?, ?, ?)",
				run.ID, f.Digest, i, p,
			); err != nil {
				return fmt.Errorf("inserting path: %w", err)
			}
		}
	}

	for ord, w := range run.Warnings {
		if _, err := tx.Exec(
			"INSERT INTO warnings (run_id, ord, kind, message, path) VALUES (?, ?, ?, ?, ?)",
			run.ID, ord, string(w.Kind), w.Message, w.Path,
		); err != nil {
			return fmt.Errorf("inserting warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Run retrieves one run with files and warnings loaded.
func (s *SQLiteStore) Run(id string) (*Run, error) {
	run, err := s.runHeader(id)
	if err != nil {
		return nil, err
	}
	if run.Files, err = s.files(id); err != nil {
		return nil, err
	}
	if run.Warnings, err = s.warnings(id); err != nil {
		return nil, err
	}
	return run, nil
}

// Runs retrieves all run headers, most recently started first.
func (s *SQLiteStore) Runs() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, root, started_at, finished_at, file_count, total_size, warning_count
		FROM runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Files retrieves the file inventory of one run.
func (s *SQLiteStore) Files(runID string) ([]tracker.Entry, error) {
	if _, err := s.runHeader(runID); err != nil {
		return nil, err
	}
	return s.files(runID)
}

// Warnings retrieves the warnings of one run.
func (s *SQLiteStore) Warnings(runID string) ([]types.Warning, error) {
	if _, err := s.runHeader(runID); err != nil {
		return nil, err
	}
	return s.warnings(runID)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runHeader(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, root, started_at, finished_at, file_count, total_size, warning_count
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

func (s *SQLiteStore) files(runID string) ([]tracker.Entry, error) {
	pathsByDigest, err := s.paths(runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT digest, size, metadata_json FROM files WHERE run_id = ? ORDER BY ord",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	var entries []tracker.Entry
	for rows.Next() {
		var e tracker.Entry
		var metadata string
		if err := rows.Scan(&e.Digest, &e.Size, &metadata); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		if e.Metadata, err = decodeMetadata(metadata); err != nil {
			return nil, err
		}
		e.Paths = pathsByDigest[e.Digest.Hex()]
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) paths(runID string) (map[string][]string, error) {
	rows, err := s.db.Query(
		"SELECT digest, path FROM paths WHERE run_id = ? ORDER BY digest, ord",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying paths: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var digest, path string
		if err := rows.Scan(&digest, &path); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		out[digest] = append(out[digest], path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating paths: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) warnings(runID string) ([]types.Warning, error) {
	rows, err := s.db.Query(
		"SELECT kind, message, path FROM warnings WHERE run_id = ? ORDER BY ord",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying warnings: %w", err)
	}
	defer rows.Close()

	var warnings []types.Warning
	for rows.Next() {
		var w types.Warning
		var kind string
		if err := rows.Scan(&kind, &w.Message, &w.Path); err != nil {
			return nil, fmt.Errorf("scanning warning: %w", err)
		}
		w.Kind = types.WarningKind(kind)
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating warnings: %w", err)
	}
	return warnings, nil
}

// rowScanner lets scanRun work over both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started, finished string
	if err := row.Scan(
		&run.ID, &run.Root, &started, &finished,
		&run.FileCount, &run.TotalSize, &run.WarningCount,
	); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}
	return &run, nil
}
