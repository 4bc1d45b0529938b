package store

import (
	"context"
	"fmt"
)

// migrations are applied in order; user_version tracks progress so adding a
// statement later upgrades existing databases.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		fingerprint TEXT PRIMARY KEY,
		seen_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS triage (
		fingerprint TEXT PRIMARY KEY,
		run_id      TEXT NOT NULL,
		category    TEXT NOT NULL,
		score       INTEGER NOT NULL,
		message_date TEXT NOT NULL,
		analyzed_at TEXT NOT NULL,
		payload     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_triage_score ON triage (score DESC, message_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_triage_category ON triage (category)`,
	`CREATE INDEX IF NOT EXISTS idx_triage_run ON triage (run_id)`,
}

func (s *Store) applyMigrations(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := s.db.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("bump schema version to %d: %w", i+1, err)
		}
	}

	return nil
}
