// Package ledger records per-item outcomes of batch runs in a local sqlite
// database. A scrape or extract run always completes; this is where the
// per-report and per-document successes and failures land so a long batch
// can be reviewed and resumed manually.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Item statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Ledger wraps the sqlite run ledger.
type Ledger struct {
	db *sql.DB
}

// Open opens (or creates) the ledger database at the given path and
// configures WAL mode.
func Open(dsn string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "ledger: exec %s", pragma)
		}
	}
	return &Ledger{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_items (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	company     TEXT NOT NULL,
	stage       TEXT NOT NULL,
	reference   TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT,
	raw_payload TEXT,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_items_run_id ON run_items(run_id);
CREATE INDEX IF NOT EXISTS idx_run_items_status ON run_items(status);
`

// Migrate creates the schema if it does not exist.
func (l *Ledger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "ledger: migrate")
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun inserts a new run row and returns its ID.
func (l *Ledger) StartRun(ctx context.Context, kind string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, started_at) VALUES (?, ?, 'running', ?)`,
		id, kind, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "ledger: start run")
	}
	return id, nil
}

// Item is one recorded outcome within a run.
type Item struct {
	Company    string
	Stage      string
	Reference  string // URL or filename, whatever identifies the work item
	Status     string
	Error      string
	RawPayload string // unparseable LLM output, kept for offline recovery
}

// RecordItem appends an item outcome to a run.
func (l *Ledger) RecordItem(ctx context.Context, runID string, item Item) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO run_items (id, run_id, company, stage, reference, status, error, raw_payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, item.Company, item.Stage, item.Reference,
		item.Status, item.Error, item.RawPayload, time.Now().UTC(),
	)
	return eris.Wrap(err, "ledger: record item")
}

// CompleteRun marks a run finished.
func (l *Ledger) CompleteRun(ctx context.Context, runID string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = 'complete', completed_at = ? WHERE id = ?`,
		time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "ledger: complete run %s", runID)
}

// RunSummary is a run with its item tallies.
type RunSummary struct {
	ID          string
	Kind        string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
	Succeeded   int
	Failed      int
}

// RecentRuns returns the most recent runs with per-item tallies, newest
// first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT r.id, r.kind, r.status, r.started_at, r.completed_at,
			COALESCE(SUM(CASE WHEN i.status = 'ok' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN run_items i ON i.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: recent runs")
	}
	defer rows.Close() //nolint:errcheck

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.Kind, &s.Status, &s.StartedAt, &s.CompletedAt, &s.Succeeded, &s.Failed); err != nil {
			return nil, eris.Wrap(err, "ledger: scan run")
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// FailedItems returns the failed items of a run, oldest first.
func (l *Ledger) FailedItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT company, stage, reference, status, COALESCE(error, ''), COALESCE(raw_payload, '')
		FROM run_items
		WHERE run_id = ? AND status = 'failed'
		ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: failed items %s", runID)
	}
	defer rows.Close() //nolint:errcheck

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Company, &it.Stage, &it.Reference, &it.Status, &it.Error, &it.RawPayload); err != nil {
			return nil, eris.Wrap(err, "ledger: scan item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
