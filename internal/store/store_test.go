package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/triage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "beacon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testResult(fingerprint string, category triage.Category, score int, date time.Time) *triage.Result {
	return &triage.Result{
		Fingerprint: fingerprint,
		MessageID:   "id-" + fingerprint,
		From:        "alice@example.com",
		Subject:     "subject " + fingerprint,
		Date:        date,
		Summary:     "summary " + fingerprint,
		Category:    category,
		Score:       score,
		AnalyzedAt:  time.Now().UTC(),
	}
}

func TestSeenAndMarkSeen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "fp-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen(ctx, "fp-1"))

	seen, err = s.Seen(ctx, "fp-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, seen)

	// Outside the TTL window the entry no longer counts.
	seen, err = s.Seen(ctx, "fp-1", time.Nanosecond)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMarkSeenIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "fp-1"))
	require.NoError(t, s.MarkSeen(ctx, "fp-1"))

	seen, err := s.Seen(ctx, "fp-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSaveAndGetTriage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	original := testResult("fp-1", triage.CategoryWork, 80, now)
	original.ActionItems = []string{"Reply to Alice"}
	require.NoError(t, s.SaveTriage(ctx, "run-1", original))

	got, err := s.GetTriage(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, original.Summary, got.Summary)
	assert.Equal(t, original.Category, got.Category)
	assert.Equal(t, original.Score, got.Score)
	assert.Equal(t, original.ActionItems, got.ActionItems)

	_, err = s.GetTriage(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveTriageUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveTriage(ctx, "run-1", testResult("fp-1", triage.CategoryOther, 10, now)))
	require.NoError(t, s.SaveTriage(ctx, "run-2", testResult("fp-1", triage.CategoryWork, 90, now)))

	got, err := s.GetTriage(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.Score)
	assert.Equal(t, triage.CategoryWork, got.Category)

	all, err := s.ListTriage(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListTriage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveTriage(ctx, "run-1", testResult("fp-low", triage.CategoryNewsletter, 10, now.Add(-2*time.Hour))))
	require.NoError(t, s.SaveTriage(ctx, "run-1", testResult("fp-high", triage.CategoryWork, 90, now.Add(-3*time.Hour))))
	require.NoError(t, s.SaveTriage(ctx, "run-1", testResult("fp-mid", triage.CategoryWork, 50, now.Add(-1*time.Hour))))

	t.Run("sorted by score", func(t *testing.T) {
		results, err := s.ListTriage(ctx, ListOptions{})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "fp-high", results[0].Fingerprint)
		assert.Equal(t, "fp-mid", results[1].Fingerprint)
		assert.Equal(t, "fp-low", results[2].Fingerprint)
	})

	t.Run("category filter", func(t *testing.T) {
		results, err := s.ListTriage(ctx, ListOptions{Category: triage.CategoryWork})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("min score filter", func(t *testing.T) {
		results, err := s.ListTriage(ctx, ListOptions{MinScore: 50})
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("limit", func(t *testing.T) {
		results, err := s.ListTriage(ctx, ListOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "fp-high", results[0].Fingerprint)
	})
}

func TestPruneExpired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "fp-old"))
	old := testResult("fp-old", triage.CategoryOther, 5, time.Now().UTC())
	old.AnalyzedAt = time.Now().UTC()
	require.NoError(t, s.SaveTriage(ctx, "run-1", old))

	// Nothing younger than an hour should be pruned.
	n, err := s.PruneExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	// With a zero TTL everything is expired.
	n, err = s.PruneExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	seen, err := s.Seen(ctx, "fp-old", time.Hour)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beacon.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.MarkSeen(context.Background(), "fp-1"))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	seen, err := s2.Seen(context.Background(), "fp-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, seen)
}
