package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"springwatch/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))
	require.NoError(t, Migrate(db.Pool))
}

func TestRecordRun_KeepsFirstSeen(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	t1 := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)
	acme := domain.Listing{Company: "Acme", Title: "Dev", Category: "Tech", URL: "https://x.io/1"}
	globex := domain.Listing{Company: "Globex", Title: "QA", Category: "Tech"}

	_, err := db.RecordRun(ctx, Run{StartedAt: t1, FinishedAt: t1, Total: 1, New: 1, Notified: true}, []domain.Listing{acme})
	require.NoError(t, err)
	_, err = db.RecordRun(ctx, Run{StartedAt: t2, FinishedAt: t2, Total: 2, New: 1}, []domain.Listing{acme, globex})
	require.NoError(t, err)

	first, err := db.FirstSeen(ctx, acme)
	require.NoError(t, err)
	assert.True(t, first.Equal(t1))

	first, err = db.FirstSeen(ctx, globex)
	require.NoError(t, err)
	assert.True(t, first.Equal(t2))

	first, err = db.FirstSeen(ctx, domain.Listing{URL: "https://x.io/unknown"})
	require.NoError(t, err)
	assert.True(t, first.IsZero())

	runs, err := db.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Total)
	assert.False(t, runs[0].Notified)
	assert.True(t, runs[1].Notified)
	assert.True(t, runs[1].StartedAt.Equal(t1))
}

func TestClose_Nil(t *testing.T) {
	var db *DB
	assert.NoError(t, db.Close())
}

func TestRecentRuns_BadTimestampIsAnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Pool.ExecContext(ctx,
		`INSERT INTO runs(started_at, finished_at, total, new_count, notified) VALUES('yesterday', '2024-10-01T08:00:00Z', 0, 0, 0);`)
	require.NoError(t, err)

	_, err = db.RecentRuns(ctx, 10)
	assert.ErrorContains(t, err, "started_at")
}

func TestFirstSeen_BadTimestampIsAnError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Pool.ExecContext(ctx, `
INSERT INTO listings(key, company, title, category, url, first_seen, last_seen)
VALUES('https://x.io/1', 'Acme', 'Dev', 'Tech', 'https://x.io/1', 'not a time', 'not a time');`)
	require.NoError(t, err)

	_, err = db.FirstSeen(ctx, domain.Listing{URL: "https://x.io/1"})
	assert.ErrorContains(t, err, "first_seen")
}

func TestRecordRun_QueryURLsKeptApart(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	t1 := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	a := domain.Listing{Company: "Acme", Title: "A", URL: "https://x.io/r?utm_source=1"}
	b := domain.Listing{Company: "Acme", Title: "B", URL: "https://x.io/r?utm_source=2"}
	_, err := db.RecordRun(ctx, Run{StartedAt: t1, FinishedAt: t1, Total: 2}, []domain.Listing{a, b})
	require.NoError(t, err)

	var n int
	require.NoError(t, db.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings;`).Scan(&n))
	assert.Equal(t, 2, n)
}
