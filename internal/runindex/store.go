// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runindex persists generated reports in a SQLite database and
// builds a full-text retrieval index over their bodies. It is the query
// surface over the report archive: the Markdown files remain the artifacts
// of record, the index makes them searchable.
package runindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/report-engine/pkg/types"
)

const dbFile = "reports.db"

// Store manages the report index SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the report index at dir/reports.db, creating
// the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			subject TEXT NOT NULL,
			path TEXT NOT NULL,
			source_count INTEGER NOT NULL,
			body TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(date, subject)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_subject ON runs(subject)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_date ON runs(date)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='runs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE runs_fts USING fts5(body, content=runs, content_rowid=rowid)`,
			`CREATE TRIGGER runs_ai AFTER INSERT ON runs BEGIN
				INSERT INTO runs_fts(rowid, body) VALUES (new.rowid, new.body);
			END`,
			`CREATE TRIGGER runs_ad AFTER DELETE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, body) VALUES('delete', old.rowid, old.body);
			END`,
			`CREATE TRIGGER runs_au AFTER UPDATE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, body) VALUES('delete', old.rowid, old.body);
				INSERT INTO runs_fts(rowid, body) VALUES (new.rowid, new.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Add upserts one generated report. A re-run of the same date and subject
// replaces the earlier row, matching the archive's overwrite semantics.
func (s *Store) Add(ctx context.Context, rec types.ReportRecord, artifactPath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (date, subject, path, source_count, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(date, subject) DO UPDATE SET
			path=excluded.path, source_count=excluded.source_count,
			body=excluded.body, created_at=excluded.created_at`,
		rec.Date, rec.Subject, artifactPath, rec.SourceCount, rec.Body,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("indexing report %s/%s: %w", rec.Date, rec.Subject, err)
	}
	return nil
}

// Stats summarizes the indexed archive.
type Stats struct {
	Runs      int    `json:"runs" yaml:"runs"`
	Subjects  int    `json:"subjects" yaml:"subjects"`
	FirstDate string `json:"first_date,omitempty" yaml:"first_date,omitempty"`
	LastDate  string `json:"last_date,omitempty" yaml:"last_date,omitempty"`
}

// Summarize returns run and subject counts and the covered date range.
func (s *Store) Summarize(ctx context.Context) (Stats, error) {
	var (
		st    Stats
		first sql.NullString
		last  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), count(DISTINCT subject), min(date), max(date) FROM runs`,
	).Scan(&st.Runs, &st.Subjects, &first, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("querying index stats: %w", err)
	}
	st.FirstDate = first.String
	st.LastDate = last.String
	return st, nil
}
