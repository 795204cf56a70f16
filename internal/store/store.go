package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("run not found")
	ErrAmbiguous = errors.New("run id prefix matches more than one run")
)

// Run states as recorded in the journal.
const (
	StateCompleted = "completed"
	StateCancelled = "cancelled"
	StateFailed    = "failed"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		source_file TEXT NOT NULL,
		target_file TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		state TEXT NOT NULL,
		total_entries INTEGER NOT NULL DEFAULT 0,
		translated_count INTEGER NOT NULL DEFAULT 0,
		failed_count INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	-- run_failures keeps the entries that kept their original text
	CREATE TABLE IF NOT EXISTS run_failures (
		run_id TEXT NOT NULL,
		entry_key TEXT NOT NULL,
		error TEXT NOT NULL,
		PRIMARY KEY (run_id, entry_key),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Run is one row of the runs table.
type Run struct {
	ID              string
	Provider        string
	SourceFile      string
	TargetFile      string
	SourceLang      string
	TargetLang      string
	State           string
	TotalEntries    int
	TranslatedCount int
	FailedCount     int
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failure is an entry that kept its original text during a run.
type Failure struct {
	Key   string
	Error string
}

// Stats summarises the journal.
type Stats struct {
	TotalRuns         int
	CompletedRuns     int
	CancelledRuns     int
	FailedRuns        int
	EntriesTranslated int
	EntryFailures     int
}

// SaveRun records a finished run and its entry failures atomically.
func (s *Store) SaveRun(ctx context.Context, run Run, failures []Failure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, provider, source_file, target_file, source_lang, target_lang, state, total_entries, translated_count, failed_count, error, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Provider, run.SourceFile, run.TargetFile, run.SourceLang, run.TargetLang, run.State,
		run.TotalEntries, run.TranslatedCount, run.FailedCount, run.Error, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, f := range failures {
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO run_failures (run_id, entry_key, error) VALUES (?, ?, ?)`,
			run.ID, f.Key, f.Error)
		if err != nil {
			return fmt.Errorf("failed to insert failure for %q: %w", f.Key, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, provider, source_file, target_file, source_lang, target_lang, state, total_entries, translated_count, failed_count, COALESCE(error, ''), started_at, finished_at`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Provider, &r.SourceFile, &r.TargetFile, &r.SourceLang, &r.TargetLang, &r.State,
		&r.TotalEntries, &r.TranslatedCount, &r.FailedCount, &r.Error, &r.StartedAt, &r.FinishedAt)
	return r, err
}

// GetRun looks a run up by its full ID or by an unambiguous ID prefix.
// The prefix is compared literally, so % and _ carry no pattern meaning.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, length(?)) = ? ORDER BY id = ? DESC LIMIT 2`,
		id, id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, ErrNotFound
	case found[0].ID == id || len(found) == 1:
		return &found[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

func (s *Store) ListFailures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_key, error FROM run_failures WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Key, &f.Error); err != nil {
			return nil, err
		}
		results = append(results, f)
	}

	return results, rows.Err()
}

// DeleteRun removes a run and its failures.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_failures WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ClearRuns removes the whole journal and returns the number of runs removed.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_failures`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return n, tx.Commit()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(translated_count - failed_count), 0),
			COALESCE(SUM(failed_count), 0)
		FROM runs`, StateCompleted, StateCancelled, StateFailed).Scan(
		&stats.TotalRuns,
		&stats.CompletedRuns,
		&stats.CancelledRuns,
		&stats.FailedRuns,
		&stats.EntriesTranslated,
		&stats.EntryFailures,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
