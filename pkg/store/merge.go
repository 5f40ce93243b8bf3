package store

import (
	"errors"
	"fmt"
)

// MergeConfig configures a merge operation.
type MergeConfig struct {
	// SourceDSNs are the stores to merge from.
	SourceDSNs []string
	// DestDSN is the store to merge into, created if needed.
	DestDSN string
}

// MergeStats reports what a merge did.
type MergeStats struct {
	RunsMerged       int
	RunsSkipped      int
	SourcesProcessed int
}

// Merge copies runs from the source stores into the destination. Runs whose
// ID already exists in the destination are skipped, so merging is idempotent
// and re-running after a partial failure is safe.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourceDSNs) == 0 {
		return nil, errors.New("store: no sources to merge")
	}
	if cfg.DestDSN == "" {
		return nil, errors.New("store: merge destination is required")
	}

	dest, err := New(Config{DSN: cfg.DestDSN})
	if err != nil {
		return nil, fmt.Errorf("opening destination: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}
	for _, dsn := range cfg.SourceDSNs {
		if err := mergeFrom(dest, dsn, stats); err != nil {
			return stats, fmt.Errorf("merging from %s: %w", dsn, err)
		}
		stats.SourcesProcessed++
	}
	return stats, nil
}

func mergeFrom(dest Store, dsn string, stats *MergeStats) error {
	source, err := New(Config{DSN: dsn})
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer source.Close()

	headers, err := source.Runs()
	if err != nil {
		return err
	}

	for _, header := range headers {
		_, err := dest.Run(header.ID)
		if err == nil {
			stats.RunsSkipped++
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		run, err := source.Run(header.ID)
		if err != nil {
			return err
		}
		if err := dest.SaveRun(run); err != nil {
			return err
		}
		stats.RunsMerged++
	}
	return nil
}
