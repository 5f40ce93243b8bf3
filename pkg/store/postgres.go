package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// PostgresStore implements Store on a postgres database, for deployments
// where many hosts feed one inventory.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres connects to the database at dsn and ensures the schema exists.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createPostgresSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func createPostgresSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			root TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			file_count INTEGER NOT NULL,
			total_size BIGINT NOT NULL,
			warning_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			run_id TEXT NOT NULL REFERENCES runs(id),
			ord INTEGER NOT NULL,
			digest TEXT NOT NULL,
			size BIGINT NOT NULL,
			metadata_json TEXT NOT NULL,
			PRIMARY KEY (run_id, ord),
			UNIQUE (run_id, digest)
		)`,
		`CREATE TABLE IF NOT EXISTS paths (
			run_id TEXT NOT NULL REFERENCES runs(id),
			digest TEXT NOT NULL,
			ord INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (run_id, digest, ord)
		)`,
		`CREATE TABLE IF NOT EXISTS warnings (
			run_id TEXT NOT NULL REFERENCES runs(id),
			ord INTEGER NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			path TEXT,
			PRIMARY KEY (run_id, ord)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES ($1)", SchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a complete run in one transaction.
func (s *PostgresStore) SaveRun(run *Run) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.ID,
		run.Root,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
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
			"INSERT INTO files (run_id, ord, digest, size, metadata_json) VALUES ($1, $2, $3, $4, $5)",
			run.ID, ord, f.Digest, f.Size, metadata,
		); err != nil {
			return fmt.Errorf("inserting file: %w", err)
		}
		for i, p := range f.Paths {
			if _, err := tx.Exec(
				"INSERT INTO paths (run_id, digest, ord, path) VALUES ($1, $2, $3, $4)",
				run.ID, f.Digest, i, p,
			); err != nil {
				return fmt.Errorf("inserting path: %w", err)
			}
		}
	}

	for ord, w := range run.Warnings {
		if _, err := tx.Exec(
			"INSERT INTO warnings (run_id, ord, kind, message, path) VALUES ($1, $2, $3, $4, $5)",
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
func (s *PostgresStore) Run(id string) (*Run, error) {
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
func (s *PostgresStore) Runs() ([]*Run, error) {
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
		var run Run
		if err := rows.Scan(
			&run.ID, &run.Root, &run.StartedAt, &run.FinishedAt,
			&run.FileCount, &run.TotalSize, &run.WarningCount,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Files retrieves the file inventory of one run.
func (s *PostgresStore) Files(runID string) ([]tracker.Entry, error) {
	if _, err := s.runHeader(runID); err != nil {
		return nil, err
	}
	return s.files(runID)
}

// Warnings retrieves the warnings of one run.
func (s *PostgresStore) Warnings(runID string) ([]types.Warning, error) {
	if _, err := s.runHeader(runID); err != nil {
		return nil, err
	}
	return s.warnings(runID)
}

// Close closes the database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) runHeader(id string) (*Run, error) {
	var run Run
	err := s.db.QueryRow(`
		SELECT id, root, started_at, finished_at, file_count, total_size, warning_count
		FROM runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Root, &run.StartedAt, &run.FinishedAt,
		&run.FileCount, &run.TotalSize, &run.WarningCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

func (s *PostgresStore) files(runID string) ([]tracker.Entry, error) {
	pathsByDigest, err := s.paths(runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		"SELECT digest, size, metadata_json FROM files WHERE run_id = $1 ORDER BY ord",
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

func (s *PostgresStore) paths(runID string) (map[string][]string, error) {
	rows, err := s.db.Query(
		"SELECT digest, path FROM paths WHERE run_id = $1 ORDER BY digest, ord",
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

func (s *PostgresStore) warnings(runID string) ([]types.Warning, error) {
	rows, err := s.db.Query(
		"SELECT kind, message, path FROM warnings WHERE run_id = $1 ORDER BY ord",
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
