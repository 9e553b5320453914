// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps the append-only ledger of completed runs, the
// authoritative dedup gate for the pipeline. The ledger is one YAML file
// loaded fully at start and rewritten fully on save; concurrent processes
// against the same ledger are not supported.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

// Entry is one completed (date, subject) run.
type Entry struct {
	// Date is the run date in YYYY-MM-DD form.
	Date string `yaml:"date"`

	// Subject is the topic the run covered.
	Subject string `yaml:"subject"`

	// RecordedAt is when the entry was appended.
	RecordedAt time.Time `yaml:"recorded_at"`
}

// ledgerFile is the on-disk document shape.
type ledgerFile struct {
	Runs []Entry `yaml:"runs"`
}

// Ledger holds the loaded run history plus a lookup set for dedup checks.
// Mutations happen in memory; Save writes the whole file back.
type Ledger struct {
	path    string
	entries []Entry
	seen    map[string]bool
}

func key(date, subject string) string {
	return date + "\x00" + subject
}

// Load reads the ledger at path. A missing file yields an empty ledger;
// a malformed file is an error rather than silent data loss.
func Load(path string) (*Ledger, error) {
	l := &Ledger{path: path, seen: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("reading history ledger %s: %w", path, err)
	}

	var doc ledgerFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing history ledger %s: %w", path, err)
	}

	for _, e := range doc.Runs {
		k := key(e.Date, e.Subject)
		if l.seen[k] {
			continue
		}
		l.seen[k] = true
		l.entries = append(l.entries, e)
	}
	return l, nil
}

// Save rewrites the ledger file wholesale. The write goes through a
// temporary file and rename so a failure cannot truncate the ledger.
func (l *Ledger) Save() error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	data, err := yaml.Marshal(ledgerFile{Runs: l.entries})
	if err != nil {
		return fmt.Errorf("marshaling history ledger: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.yaml")
	if err != nil {
		return fmt.Errorf("creating ledger temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing ledger temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing ledger temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing history ledger: %w", err)
	}
	return nil
}

// HasRun reports whether a run for (date, subject) is already recorded.
func (l *Ledger) HasRun(date, subject string) bool {
	return l.seen[key(date, subject)]
}

// Record appends a completed run. Recording an existing key is a no-op,
// preserving key uniqueness.
func (l *Ledger) Record(date, subject string) {
	k := key(date, subject)
	if l.seen[k] {
		return
	}
	l.seen[k] = true
	l.entries = append(l.entries, Entry{Date: date, Subject: subject, RecordedAt: time.Now()})
}

// Len returns the number of recorded runs.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns a copy of the ledger in recorded order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ContextFor returns the dates of up to n most recent prior runs for a
// subject, oldest first. The pipeline feeds these to the generator as
// continuity context.
func (l *Ledger) ContextFor(subject string, n int) []string {
	var dates []string
	for _, e := range l.entries {
		if e.Subject == subject {
			dates = append(dates, e.Date)
		}
	}
	if n > 0 && len(dates) > n {
		dates = dates[len(dates)-n:]
	}
	return dates
}
