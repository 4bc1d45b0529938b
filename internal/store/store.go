package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"beacon/internal/triage"
)

// ErrNotFound is returned when a triage record does not exist.
var ErrNotFound = errors.New("triage record not found")

// Store manages dedup state and triage results backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Seen reports whether the fingerprint was marked within the TTL window.
func (s *Store) Seen(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	var seenAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT seen_at FROM messages WHERE fingerprint = ?", fingerprint,
	).Scan(&seenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup fingerprint: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, seenAt)
	if err != nil {
		return false, fmt.Errorf("corrupt seen_at %q: %w", seenAt, err)
	}

	return time.Since(t) < ttl, nil
}

// MarkSeen records the fingerprint, refreshing the timestamp when it
// already exists.
func (s *Store) MarkSeen(ctx context.Context, fingerprint string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (fingerprint, seen_at) VALUES (?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET seen_at = excluded.seen_at`,
		fingerprint, now,
	)
	if err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// SaveTriage upserts the triage record for a message.
func (s *Store) SaveTriage(ctx context.Context, runID string, result *triage.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode triage record: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO triage (fingerprint, run_id, category, score, message_date, analyzed_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			run_id = excluded.run_id,
			category = excluded.category,
			score = excluded.score,
			message_date = excluded.message_date,
			analyzed_at = excluded.analyzed_at,
			payload = excluded.payload`,
		result.Fingerprint,
		runID,
		string(result.Category),
		result.Score,
		result.Date.UTC().Format(time.RFC3339Nano),
		result.AnalyzedAt.UTC().Format(time.RFC3339Nano),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save triage record: %w", err)
	}
	return nil
}

// GetTriage returns the record for a fingerprint, or ErrNotFound.
func (s *Store) GetTriage(ctx context.Context, fingerprint string) (*triage.Result, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM triage WHERE fingerprint = ?", fingerprint,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get triage record: %w", err)
	}
	return decodeResult(payload)
}

// ListOptions filters ListTriage output. Zero values match everything.
type ListOptions struct {
	Category triage.Category
	MinScore int
	Limit    int
}

// ListTriage returns records ordered by score descending, newest first on
// ties.
func (s *Store) ListTriage(ctx context.Context, opts ListOptions) ([]*triage.Result, error) {
	query := "SELECT payload FROM triage WHERE score >= ?"
	args := []any{opts.MinScore}

	if opts.Category != "" {
		query += " AND category = ?"
		args = append(args, string(opts.Category))
	}
	query += " ORDER BY score DESC, message_date DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list triage records: %w", err)
	}
	defer rows.Close()

	var results []*triage.Result
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan triage record: %w", err)
		}
		r, err := decodeResult(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate triage records: %w", err)
	}

	return results, nil
}

// PruneExpired removes dedup entries and triage records older than ttl.
// Returns the number of rows removed across both tables.
func (s *Store) PruneExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl).Format(time.RFC3339Nano)

	var total int64
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune messages: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	res, err = s.db.ExecContext(ctx, "DELETE FROM triage WHERE analyzed_at < ?", cutoff)
	if err != nil {
		return total, fmt.Errorf("prune triage records: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}

func decodeResult(payload string) (*triage.Result, error) {
	var r triage.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode triage record: %w", err)
	}
	return &r, nil
}
