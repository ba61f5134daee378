// Package store provides the optional SQLite-backed run-history journal.
// A journal failure never affects a transfer's outcome or exit code.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a new Store, opening the SQLite database and running migrations
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("history journal opened", "path", dbPath)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RecordRun inserts a completed TransferRun and sets its ID
func (s *Store) RecordRun(run *TransferRun) error {
	const query = `
		INSERT INTO transfer_runs (
			source_host, mode, start_time, end_time, total, transferred,
			skipped_exists, not_found, fetch_failed, write_failed,
			cleanup_failed, exit_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(
		query,
		run.SourceHost, run.Mode, run.StartTime, run.EndTime, run.Total,
		run.Transferred, run.SkippedExists, run.NotFound, run.FetchFailed,
		run.WriteFailed, run.CleanupFailed, run.ExitCode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transfer run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// ListRuns retrieves the most recent transfer runs, newest first
func (s *Store) ListRuns(limit int) ([]TransferRun, error) {
	query := `
		SELECT id, source_host, mode, start_time, end_time, total, transferred,
		       skipped_exists, not_found, fetch_failed, write_failed,
		       cleanup_failed, exit_code
		FROM transfer_runs
		ORDER BY start_time DESC
	`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer runs: %w", err)
	}
	defer rows.Close()

	var runs []TransferRun
	for rows.Next() {
		var run TransferRun
		err := rows.Scan(
			&run.ID, &run.SourceHost, &run.Mode, &run.StartTime, &run.EndTime,
			&run.Total, &run.Transferred, &run.SkippedExists, &run.NotFound,
			&run.FetchFailed, &run.WriteFailed, &run.CleanupFailed, &run.ExitCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
