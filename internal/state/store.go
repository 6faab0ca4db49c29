// Package state keeps a durable ledger of apply runs and the backups they
// took, in SQLite (modernc.org/sqlite, pure Go).
//
// Backup files themselves live next to the files they protect; the ledger
// only records where they are so `nodecfg backups` and `nodecfg restore`
// can find them later. Rows are never updated or pruned, except that a
// run's status is set once when it finishes.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"grimm.is/nodecfg/internal/backup"
	"grimm.is/nodecfg/internal/clock"
)

// ErrNotFound is returned when a ledger row does not exist.
var ErrNotFound = errors.New("not found")

// Run statuses.
const (
	RunRunning = "running"
	RunOK      = "ok"
	RunFailed  = "failed"
)

// Options configures the ledger.
type Options struct {
	Path    string      // Database file path (":memory:" for in-memory)
	WALMode bool        // Enable WAL mode
	Clock   clock.Clock // Optional: time source (defaults to RealClock if nil)
}

// DefaultOptions returns sensible defaults.
func DefaultOptions(path string) Options {
	return Options{
		Path:    path,
		WALMode: true,
	}
}

// Entry is a recorded backup.
type Entry struct {
	ID    int64
	RunID string
	backup.Record
}

// Run is one CLI invocation that may have taken backups.
type Run struct {
	ID         string
	Command    string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Backups    int
}

// Ledger is the SQLite-backed backup ledger.
type Ledger struct {
	db    *sql.DB
	clock clock.Clock
}

// Open opens (or creates) the ledger.
func Open(opts Options) (*Ledger, error) {
	dsn := opts.Path
	if opts.WALMode && opts.Path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	l := &Ledger{db: db, clock: clock.OrReal(opts.Clock)}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT
		);

		CREATE TABLE IF NOT EXISTS backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			original TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			taken_at TEXT NOT NULL,
			size INTEGER NOT NULL,
			mode INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_backups_original ON backups(original);
		CREATE INDEX IF NOT EXISTS idx_backups_run ON backups(run_id);
	`
	_, err := l.db.Exec(schema)
	return err
}

// BeginRun records the start of a run.
func (l *Ledger) BeginRun(id, command string) error {
	_, err := l.db.Exec(
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		id, command, RunRunning, formatTime(l.clock.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", id, err)
	}
	return nil
}

// FinishRun sets the final status of a run.
func (l *Ledger) FinishRun(id, status string) error {
	res, err := l.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ? AND finished_at IS NULL`,
		status, formatTime(l.clock.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordBackup stores a backup record under a run.
func (l *Ledger) RecordBackup(runID string, rec backup.Record) (int64, error) {
	res, err := l.db.Exec(
		`INSERT INTO backups (run_id, original, path, taken_at, size, mode) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, rec.Original, rec.Path, formatTime(rec.Timestamp), rec.Size, int64(rec.Mode),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record backup %s: %w", rec.Path, err)
	}
	return res.LastInsertId()
}

// Backups lists recorded backups, newest first. An empty original lists
// every backup.
func (l *Ledger) Backups(original string) ([]Entry, error) {
	q := `SELECT id, run_id, original, path, taken_at, size, mode FROM backups`
	var args []any
	if original != "" {
		q += ` WHERE original = ?`
		args = append(args, original)
	}
	q += ` ORDER BY taken_at DESC, id DESC`

	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Backup returns one recorded backup by ID.
func (l *Ledger) Backup(id int64) (*Entry, error) {
	row := l.db.QueryRow(
		`SELECT id, run_id, original, path, taken_at, size, mode FROM backups WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("backup %d: %w", id, ErrNotFound)
	}
	return e, err
}

// Runs lists the most recent runs, newest first.
func (l *Ledger) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(`
		SELECT r.id, r.command, r.status, r.started_at, COALESCE(r.finished_at, ''),
			(SELECT COUNT(*) FROM backups b WHERE b.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Command, &r.Status, &started, &finished, &r.Backups); err != nil {
			return nil, err
		}
		r.StartedAt, _ = parseTime(started)
		if finished != "" {
			r.FinishedAt, _ = parseTime(finished)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e     Entry
		taken string
		mode  int64
	)
	if err := s.Scan(&e.ID, &e.RunID, &e.Original, &e.Path, &taken, &e.Size, &mode); err != nil {
		return nil, err
	}
	t, err := parseTime(taken)
	if err != nil {
		return nil, fmt.Errorf("backup %d: bad timestamp %q: %w", e.ID, taken, err)
	}
	e.Timestamp = t
	e.Mode = fs.FileMode(mode)
	return &e, nil
}

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
