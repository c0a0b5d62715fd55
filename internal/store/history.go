package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"springwatch/internal/domain"
)

// Run is one pipeline execution as kept in the history database.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	New        int
	Notified   bool
}

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  total INTEGER NOT NULL DEFAULT 0,
  new_count INTEGER NOT NULL DEFAULT 0,
  notified INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS listings (
  key TEXT PRIMARY KEY,
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  category TEXT NOT NULL,
  url TEXT NOT NULL,
  first_seen TEXT NOT NULL,
  last_seen TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_listings_company
ON listings(company);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

// RecordRun stores run and upserts every listing, keeping first_seen.
func (d *DB) RecordRun(ctx context.Context, run Run, listings []domain.Listing) (int64, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO runs(started_at, finished_at, total, new_count, notified)
VALUES(?,?,?,?,?);`,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Total,
		run.New,
		run.Notified,
	)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()

	seen := run.FinishedAt.UTC().Format(time.RFC3339)
	for _, l := range listings {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO listings(key, company, title, category, url, first_seen, last_seen)
VALUES(?,?,?,?,?,?,?)
ON CONFLICT(key) DO UPDATE SET
  company = excluded.company,
  title = excluded.title,
  category = excluded.category,
  url = excluded.url,
  last_seen = excluded.last_seen;`,
			listingKey(l), l.Company, l.Title, l.Category, l.URL, seen, seen,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RecentRuns returns up to limit runs, newest first.
func (d *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.Pool.QueryContext(ctx, `
SELECT id, started_at, finished_at, total, new_count, notified
FROM runs
ORDER BY id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Total, &r.New, &r.Notified); err != nil {
			return nil, err
		}
		if r.StartedAt, err = parseStamp("started_at", started); err != nil {
			return nil, fmt.Errorf("run %d: %w", r.ID, err)
		}
		if r.FinishedAt, err = parseStamp("finished_at", finished); err != nil {
			return nil, fmt.Errorf("run %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FirstSeen returns when the listing with this URL (or company|title) was
// first recorded, or the zero time.
func (d *DB) FirstSeen(ctx context.Context, l domain.Listing) (time.Time, error) {
	var s string
	err := d.Pool.QueryRowContext(ctx,
		`SELECT first_seen FROM listings WHERE key = ? LIMIT 1;`,
		listingKey(l),
	).Scan(&s)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseStamp("first_seen", s)
}

func parseStamp(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s %q: %w", column, s, err)
	}
	return t, nil
}

func listingKey(l domain.Listing) string {
	if u := strings.TrimSpace(l.URL); u != "" {
		return u
	}
	return l.Company + "|" + l.Title
}
