package ledger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the ledger at dbPath.
// Use ":memory:" for an in-memory ledger.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "create ledger directory").
				WithContext("file", dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open ledger database").
			WithContext("file", dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize ledger schema").
			WithContext("file", dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		code TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		page_id INTEGER NOT NULL DEFAULT 0,
		fingerprint TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_code ON entries(code);
	CREATE INDEX IF NOT EXISTS idx_entries_run ON entries(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartRun registers a new run.
func (s *SQLiteStore) StartRun(ctx context.Context, runID, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, target, started_at) VALUES (?, ?, ?)",
		runID, target, s.now().UnixNano(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "insert run").WithContext("run_id", runID).Build()
	}
	return nil
}

// Record appends a page outcome. A zero At is stamped with the current time.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	if e.RunID == "" || e.Code == "" {
		return errors.ValidationError("ledger entry requires run id and code").Build()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	at := e.At
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (run_id, code, url, page_id, fingerprint, status, error, at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.RunID, e.Code, e.URL, e.PageID, e.Fingerprint, string(e.Status), e.Error, at.UnixNano(),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "insert entry").
			WithContext("run_id", e.RunID).
			WithContext("code", e.Code).
			Build()
	}
	return nil
}

// FinishRun stamps the run's end time and returns its tallies.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string) (Run, error) {
	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, "UPDATE runs SET finished_at = ? WHERE id = ?", s.now().UnixNano(), runID)
	s.mu.Unlock()
	if err != nil {
		return Run{}, errors.WrapError(err, errors.CategoryStorage, "update run").WithContext("run_id", runID).Build()
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Run{}, errors.NotFoundError("run not found").WithContext("run_id", runID).Build()
	}

	runs, err := s.queryRuns(ctx, "WHERE r.id = ?", runID)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, errors.NotFoundError("run not found").WithContext("run_id", runID).Build()
	}
	return runs[0], nil
}

// Latest returns the most recent published or skipped entry of every code.
func (s *SQLiteStore) Latest(ctx context.Context) (map[string]Entry, error) {
	entries, err := s.queryEntries(ctx, `
		SELECT run_id, code, url, page_id, fingerprint, status, error, at FROM entries
		WHERE id IN (
			SELECT MAX(id) FROM entries WHERE status IN (?, ?) GROUP BY code
		)`, string(StatusPublished), string(StatusSkipped))
	if err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(entries))
	for _, e := range entries {
		out[e.Code] = e
	}
	return out, nil
}

// History returns the entries of one code, newest first.
func (s *SQLiteStore) History(ctx context.Context, code string) ([]Entry, error) {
	return s.queryEntries(ctx,
		"SELECT run_id, code, url, page_id, fingerprint, status, error, at FROM entries WHERE code = ? ORDER BY id DESC",
		code)
}

// Runs returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryRuns(ctx, "ORDER BY r.started_at DESC, r.rowid DESC LIMIT ?", limit)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query entries").Build()
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			status string
			at     int64
		)
		if err := rows.Scan(&e.RunID, &e.Code, &e.URL, &e.PageID, &e.Fingerprint, &status, &e.Error, &at); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan entry").Build()
		}
		e.Status = Status(status)
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate entries").Build()
	}
	return entries, nil
}

func (s *SQLiteStore) queryRuns(ctx context.Context, clause string, args ...any) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.target, r.started_at, r.finished_at,
			(SELECT COUNT(*) FROM entries e WHERE e.run_id = r.id AND e.status = 'published'),
			(SELECT COUNT(*) FROM entries e WHERE e.run_id = r.id AND e.status = 'skipped'),
			(SELECT COUNT(*) FROM entries e WHERE e.run_id = r.id AND e.status = 'failed')
		FROM runs r `+clause, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query runs").Build()
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.Target, &started, &finished, &r.Published, &r.Skipped, &r.Failed); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan run").Build()
		}
		r.StartedAt = time.Unix(0, started)
		if finished != 0 {
			r.FinishedAt = time.Unix(0, finished)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate runs").Build()
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
