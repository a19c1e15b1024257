package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL UNIQUE,
			started_at  INTEGER NOT NULL,
			source      TEXT,
			format      TEXT,
			bars        INTEGER,
			dropped     INTEGER,
			threshold   REAL,
			interval_ms INTEGER,
			events      INTEGER,
			status      TEXT,
			error       TEXT,
			elapsed_ms  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO scan_runs
		(run_id, started_at, source, format, bars, dropped, threshold, interval_ms,
		 events, status, error, elapsed_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.StartedAt.UnixMilli(), run.Source, run.Format,
		run.Bars, run.Dropped, run.Threshold, run.IntervalMillis,
		run.Events, run.Status, run.Error, run.Elapsed.Milliseconds(),
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, started_at, source, format, bars, dropped,
		threshold, interval_ms, events, status, error, elapsed_ms
		FROM scan_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run       RunRecord
			startedAt int64
			elapsedMs int64
		)
		if err := rows.Scan(&run.RunID, &startedAt, &run.Source, &run.Format,
			&run.Bars, &run.Dropped, &run.Threshold, &run.IntervalMillis,
			&run.Events, &run.Status, &run.Error, &elapsedMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(startedAt)
		run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	slog.Info("closing sqlite recorder")
	return r.db.Close()
}
