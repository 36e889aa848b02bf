package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/crosscheck/internal/events"
	"github.com/TheMichaelB/crosscheck/internal/verify"
)

// CurrentSchemaVersion tracks the history database layout.
const CurrentSchemaVersion = 1

// Store persists verification run summaries in SQLite. The runner itself
// stays stateless; regression-over-time comparison lives here, on the
// consumer side.
type Store struct {
	db     *sql.DB
	logger *events.Logger
}

// RunSummary is one persisted verification run.
type RunSummary struct {
	ID       int64     `json:"id"`
	Platform string    `json:"platform"`
	Version  string    `json:"version"`
	RanAt    time.Time `json:"ran_at"`
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
}

// Failure is one persisted failed item of a run.
type Failure struct {
	TestID    string `json:"test_id"`
	Algorithm string `json:"algorithm"`
	Error     string `json:"error"`
}

// NewStore opens (and if needed initializes) a history database.
func NewStore(dbPath string, logger *events.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger.WithField("component", "history_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables and indexes.
func (s *Store) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        platform TEXT NOT NULL,
        version TEXT NOT NULL,
        ran_at TIMESTAMP NOT NULL,
        total INTEGER NOT NULL,
        passed INTEGER NOT NULL,
        failed INTEGER NOT NULL
    );

    CREATE TABLE IF NOT EXISTS run_failures (
        run_id INTEGER NOT NULL,
        test_id TEXT NOT NULL,
        algorithm TEXT NOT NULL,
        error TEXT NOT NULL,
        PRIMARY KEY (run_id, test_id),
        FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_runs_platform ON runs(platform, ran_at);

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, CurrentSchemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return nil
}

// Record persists one report and returns the run id.
func (s *Store) Record(report *verify.Report) (int64, error) {
	s.logger.WithFields(map[string]interface{}{
		"platform": report.Platform,
		"total":    report.Total,
		"failed":   report.Failed,
	}).Debug("Recording run")

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
        INSERT INTO runs (platform, version, ran_at, total, passed, failed)
        VALUES (?, ?, ?, ?, ?, ?)
    `, report.Platform, report.Version, report.StartedAt, report.Total, report.Passed, report.Failed)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`
        INSERT INTO run_failures (run_id, test_id, algorithm, error)
        VALUES (?, ?, ?, ?)
    `)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, failure := range report.Failures() {
		if _, err := stmt.Exec(runID, failure.TestID, string(failure.Algorithm), failure.Error); err != nil {
			return 0, fmt.Errorf("insert failure %s: %w", failure.TestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(`
        SELECT id, platform, version, ran_at, total, passed, failed
        FROM runs
        ORDER BY ran_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(&run.ID, &run.Platform, &run.Version, &run.RanAt,
			&run.Total, &run.Passed, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Failures returns the failed items of one run.
func (s *Store) Failures(runID int64) ([]Failure, error) {
	rows, err := s.db.Query(`
        SELECT test_id, algorithm, error
        FROM run_failures
        WHERE run_id = ?
        ORDER BY test_id
    `, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.TestID, &f.Algorithm, &f.Error); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}

// Regressed reports whether the platform's previous recorded run was
// all-PASS while the given report has failures.
func (s *Store) Regressed(report *verify.Report) (bool, error) {
	if report.Failed == 0 {
		return false, nil
	}

	var lastFailed sql.NullInt64
	err := s.db.QueryRow(`
        SELECT failed FROM runs
        WHERE platform = ?
        ORDER BY ran_at DESC, id DESC
        LIMIT 1
    `, report.Platform).Scan(&lastFailed)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query last run: %w", err)
	}

	return lastFailed.Valid && lastFailed.Int64 == 0, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
