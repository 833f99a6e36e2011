// Package ledger persists one row per rule per valet scan invocation to a
// local SQLite database, so `valet history` can list recent runs. It is
// pure tooling: nothing in internal/manager or internal/extract depends on
// it. It is wired in only by the scan and history commands; scan returns a
// failure to open the ledger or to record a run as its own error.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Run is one rule's row of a recorded `valet scan` invocation.
type Run struct {
	ID          int64
	StartedAt   time.Time
	RuleDir     string
	RuleSetHash string
	DocCount    int
	RuleName    string
	MatchCount  int
}

// Store wraps a *sql.DB opened against a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite file at path and ensures
// its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already-open *sql.DB, letting tests inject a sqlmock
// connection instead of a real SQLite file.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) initialize() error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at    DATETIME NOT NULL,
	rule_dir      TEXT NOT NULL,
	rule_set_hash TEXT NOT NULL,
	doc_count     INTEGER NOT NULL,
	rule_name     TEXT NOT NULL,
	match_count   INTEGER NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ledger: initializing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one completed run.
func (s *Store) Record(r Run) (int64, error) {
	const q = `
INSERT INTO runs (started_at, rule_dir, rule_set_hash, doc_count, rule_name, match_count)
VALUES (?, ?, ?, ?, ?, ?)
`
	res, err := s.db.Exec(q, r.StartedAt, r.RuleDir, r.RuleSetHash, r.DocCount, r.RuleName, r.MatchCount)
	if err != nil {
		return 0, fmt.Errorf("ledger: recording run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the most recent n runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	const q = `
SELECT id, started_at, rule_dir, rule_set_hash, doc_count, rule_name, match_count
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?
`
	rows, err := s.db.Query(q, n)
	if err != nil {
		return nil, fmt.Errorf("ledger: querying recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.RuleDir, &r.RuleSetHash, &r.DocCount, &r.RuleName, &r.MatchCount); err != nil {
			return nil, fmt.Errorf("ledger: scanning run row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterating run rows: %w", err)
	}
	return out, nil
}
