// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-engine/pkg/types"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"daily-tech", "daily-tech"},
		{"AI Tools", "ai-tools"},
		{"LLM / Agents (weekly)", "llm-agents-weekly"},
		{"  spaced  out  ", "spaced-out"},
		{"trailing!!!", "trailing"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathIsDeterministic(t *testing.T) {
	a := Path("reports", "2024-01-01", "daily-tech")
	b := Path("reports", "2024-01-01", "daily-tech")
	assert.Equal(t, a, b)
	assert.Equal(t, filepath.Join("reports", "2024-01-01_daily-tech.md"), a)
}

func TestWriteCreatesArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := &Writer{Dir: dir}

	path, err := w.Write(types.ReportRecord{
		Date:        "2024-01-01",
		Subject:     "daily-tech",
		Body:        "The day's synthesis.",
		SourceCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, Path(dir, "2024-01-01", "daily-tech"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# 2024-01-01 — daily-tech")
	assert.Contains(t, content, "The day's synthesis.")
	assert.Contains(t, content, "3 fresh sources")
}

func TestWriteOverwritesExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w := &Writer{Dir: dir}
	rec := types.ReportRecord{Date: "2024-01-01", Subject: "daily-tech", Body: "first", SourceCount: 1}

	_, err := w.Write(rec)
	require.NoError(t, err)

	rec.Body = "second"
	path, err := w.Write(rec)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")
	assert.NotContains(t, string(data), "first")
}

func TestWriteUnwritableTargetIsPersistenceError(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Chmod(base, 0o555))
	t.Cleanup(func() { os.Chmod(base, 0o755) })

	w := &Writer{Dir: filepath.Join(base, "reports")}
	_, err := w.Write(types.ReportRecord{Date: "2024-01-01", Subject: "daily-tech", Body: "x"})
	require.Error(t, err)

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestRenderNoSourcesFooter(t *testing.T) {
	out := Render(types.ReportRecord{Date: "2024-01-01", Subject: "daily-tech", Body: "Quiet day."})
	assert.Contains(t, out, "No fresh sources were available")
}
