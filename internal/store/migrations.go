package store

import (
	"fmt"
)

// migrate runs all pending migrations
func (s *Store) migrate() error {
	createMigrationsTableSQL := `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL UNIQUE,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := s.db.Exec(createMigrationsTableSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{
			version: 1,
			sql: `
				CREATE TABLE transfer_runs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					source_host TEXT NOT NULL,
					mode TEXT NOT NULL,
					start_time DATETIME NOT NULL,
					end_time DATETIME,
					total INTEGER DEFAULT 0,
					transferred INTEGER DEFAULT 0,
					skipped_exists INTEGER DEFAULT 0,
					not_found INTEGER DEFAULT 0,
					fetch_failed INTEGER DEFAULT 0,
					write_failed INTEGER DEFAULT 0,
					cleanup_failed INTEGER DEFAULT 0,
					exit_code INTEGER DEFAULT 0
				);

				CREATE INDEX idx_transfer_runs_start ON transfer_runs(start_time);
			`,
		},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		s.logger.Info("applied migration", "version", m.version)
	}

	return nil
}
