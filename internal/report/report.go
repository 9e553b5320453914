// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders and persists report artifacts in the archive.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/report-engine/pkg/types"
)

// PersistenceError reports a failure to write an artifact. Fatal for the
// subject's run.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("writing report %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Slug converts a subject into its archive filename component: lowercase
// with runs of non-alphanumerics collapsed to single hyphens.
func Slug(subject string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(subject) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Path returns the deterministic artifact location for a (date, subject)
// key: <dir>/<date>_<subject-slug>.md.
func Path(dir, date, subject string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.md", date, Slug(subject)))
}

// Render produces the Markdown artifact for a record: a dated header, the
// synthesized body, and a provenance footer.
func Render(rec types.ReportRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s — %s\n\n", rec.Date, rec.Subject)
	b.WriteString(strings.TrimSpace(rec.Body))
	b.WriteString("\n\n---\n\n")
	if rec.SourceCount > 0 {
		fmt.Fprintf(&b, "_Synthesized from %d fresh sources._\n", rec.SourceCount)
	} else {
		b.WriteString("_No fresh sources were available for this run._\n")
	}
	return b.String()
}

// Writer persists report artifacts under one archive directory.
type Writer struct {
	Dir string
}

// Write renders the record and stores it at the deterministic path,
// creating the archive directory if needed. An existing artifact for the
// same key is overwritten: the history ledger, not the filesystem, is the
// dedup gate.
func (w *Writer) Write(rec types.ReportRecord) (string, error) {
	path := Path(w.Dir, rec.Date, rec.Subject)

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(Render(rec)), 0o644); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	return path, nil
}
