package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current sqlite schema version.
const SchemaVersion = 1

// CreateSchema creates the sqlite schema if it does not exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}
	if err := createRunsTable(db); err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}
	if err := createFilesTable(db); err != nil {
		return fmt.Errorf("creating files table: %w", err)
	}
	if err := createPathsTable(db); err != nil {
		return fmt.Errorf("creating paths table: %w", err)
	}
	if err := createWarningsTable(db); err != nil {
		return fmt.Errorf("creating warnings table: %w", err)
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
	}
	return err
}

func createRunsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY NOT NULL,
			root TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			file_count INTEGER NOT NULL,
			total_size INTEGER NOT NULL,
			warning_count INTEGER NOT NULL
		)
	`)
	return err
}

func createFilesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			run_id TEXT NOT NULL REFERENCES runs(id),
			ord INTEGER NOT NULL,
			digest TEXT NOT NULL,
			size INTEGER NOT NULL,
			metadata_json TEXT NOT NULL,
			PRIMARY KEY (run_id, ord),
			UNIQUE (run_id, digest)
		)
	`)
	return err
}

func createPathsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS paths (
			run_id TEXT NOT NULL REFERENCES runs(id),
			digest TEXT NOT NULL,
			ord INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (run_id, digest, ord)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_paths_run_digest ON paths(run_id, digest)
	`)
	return err
}

func createWarningsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS warnings (
			run_id TEXT NOT NULL REFERENCES runs(id),
			ord INTEGER NOT NULL,
			kind TEXT NOT NULL,
			message TEXT NOT NULL,
			path TEXT,
			PRIMARY KEY (run_id, ord)
		)
	`)
	return err
}
