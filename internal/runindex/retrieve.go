// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runindex

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const excerptLen = 280

// QueryOptions holds parameters for report index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over report bodies.
	Query string

	// Subject filters by subject.
	Subject string

	// Date filters by run date (ISO-8601).
	Date string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Subject == "" && q.Date == ""
}

// QueryResult is one indexed report row. Excerpt is the opening of the
// report body, truncated for listing output.
type QueryResult struct {
	Date        string `json:"date" yaml:"date"`
	Subject     string `json:"subject" yaml:"subject"`
	Path        string `json:"path" yaml:"path"`
	SourceCount int    `json:"source_count" yaml:"source_count"`
	Excerpt     string `json:"excerpt" yaml:"excerpt"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// Retrieve queries the report index with optional full-text search and
// structured filters. Results are ranked by relevance for full-text
// queries, newest first otherwise.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.date, r.subject, r.path, r.source_count, r.body, r.created_at
			FROM runs_fts
			JOIN runs r ON r.rowid = runs_fts.rowid
			WHERE runs_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.date, r.subject, r.path, r.source_count, r.body, r.created_at
			FROM runs r
			WHERE 1=1`)
	}

	if opts.Subject != "" {
		qb.WriteString(` AND r.subject = ?`)
		args = append(args, opts.Subject)
	}

	if opts.Date != "" {
		qb.WriteString(` AND r.date = ?`)
		args = append(args, opts.Date)
	}

	if useFTS {
		qb.WriteString(` ORDER BY runs_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.date DESC, r.subject`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying report index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr   QueryResult
			body string
		)
		if err := rows.Scan(&qr.Date, &qr.Subject, &qr.Path, &qr.SourceCount, &body, &qr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Excerpt = excerpt(body)
		results = append(results, qr)
	}

	return results, rows.Err()
}

func excerpt(body string) string {
	body = strings.TrimSpace(body)
	if len(body) <= excerptLen {
		return body
	}
	// Back up to a rune boundary so multibyte text is never split, then
	// prefer the last word break.
	end := excerptLen
	for end > 0 && !utf8.RuneStart(body[end]) {
		end--
	}
	cut := body[:end]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
