package runindex

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := NewStore(types.IndexConfig{Dir: dir, MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dir
}

func addRun(t *testing.T, s *Store, date, subject, body string, sources int) {
	t.Helper()
	rec := types.ReportRecord{Date: date, Subject: subject, Body: body, SourceCount: sources}
	path := "reports/" + date + "_" + strings.ReplaceAll(subject, " ", "-") + ".md"
	if err := s.Add(context.Background(), rec, path); err != nil {
		t.Fatal(err)
	}
}

func seedRuns(t *testing.T, s *Store) {
	t.Helper()
	addRun(t, s, "2026-08-28", "quantum computing",
		"Error correction milestones dominated today's quantum computing coverage.", 5)
	addRun(t, s, "2026-08-29", "quantum computing",
		"A new superconducting qubit design was announced by two vendors.", 3)
	addRun(t, s, "2026-08-29", "fusion energy",
		"Tokamak funding rounds closed and a stellarator hit first plasma.", 4)
}

// --- tests ---

func TestAddAndRetrieveAll(t *testing.T) {
	store, _ := testStore(t)
	seedRuns(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(results))
	}
	// Newest first for non-search listings.
	if results[0].Date != "2026-08-29" {
		t.Errorf("expected newest run first, got %s", results[0].Date)
	}
	if results[2].Date != "2026-08-28" {
		t.Errorf("expected oldest run last, got %s", results[2].Date)
	}
}

func TestAddReplacesSameDateAndSubject(t *testing.T) {
	store, _ := testStore(t)
	addRun(t, store, "2026-08-29", "fusion energy", "first draft", 1)
	addRun(t, store, "2026-08-29", "fusion energy", "second draft after re-run", 6)

	results, err := store.Retrieve(context.Background(), QueryOptions{Subject: "fusion energy"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 run after overwrite, got %d", len(results))
	}
	if results[0].SourceCount != 6 {
		t.Errorf("expected replaced row, got source_count %d", results[0].SourceCount)
	}
	if !strings.Contains(results[0].Excerpt, "second draft") {
		t.Errorf("expected replaced body, got %q", results[0].Excerpt)
	}
}

func TestFullTextSearch(t *testing.T) {
	store, _ := testStore(t)
	seedRuns(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{Query: "stellarator"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	if results[0].Subject != "fusion energy" {
		t.Errorf("expected fusion energy run, got %s", results[0].Subject)
	}
}

func TestSearchSurvivesUpdate(t *testing.T) {
	store, _ := testStore(t)
	addRun(t, store, "2026-08-29", "quantum computing", "mentions topological qubits", 2)
	addRun(t, store, "2026-08-29", "quantum computing", "mentions photonic interconnects", 2)

	hits, err := store.Retrieve(context.Background(), QueryOptions{Query: "topological"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected stale body to drop out of the index, got %d hits", len(hits))
	}

	hits, err = store.Retrieve(context.Background(), QueryOptions{Query: "photonic"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("expected updated body to be searchable, got %d hits", len(hits))
	}
}

func TestStructuredFilters(t *testing.T) {
	store, _ := testStore(t)
	seedRuns(t, store)

	tests := []struct {
		name string
		opts QueryOptions
		want int
	}{
		{"by subject", QueryOptions{Subject: "quantum computing"}, 2},
		{"by date", QueryOptions{Date: "2026-08-29"}, 2},
		{"subject and date", QueryOptions{Subject: "quantum computing", Date: "2026-08-29"}, 1},
		{"search with subject filter", QueryOptions{Query: "qubit", Subject: "fusion energy"}, 0},
		{"no match", QueryOptions{Subject: "nonexistent"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.want {
				t.Errorf("expected %d results, got %d", tt.want, len(results))
			}
		})
	}
}

func TestMaxResultsLimit(t *testing.T) {
	store, _ := testStore(t)
	seedRuns(t, store)

	results, err := store.Retrieve(context.Background(), QueryOptions{MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestExcerptTruncation(t *testing.T) {
	store, _ := testStore(t)
	long := strings.Repeat("lengthy report prose ", 40)
	addRun(t, store, "2026-08-29", "quantum computing", long, 2)

	results, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatal("expected one run")
	}
	if len(results[0].Excerpt) > excerptLen+4 {
		t.Errorf("excerpt too long: %d chars", len(results[0].Excerpt))
	}
	if !strings.HasSuffix(results[0].Excerpt, "…") {
		t.Errorf("expected truncation marker, got %q", results[0].Excerpt)
	}
}

func TestExcerptKeepsRunesIntact(t *testing.T) {
	store, _ := testStore(t)
	long := strings.Repeat("量子計算の誤り訂正で大きな進展があった。", 20)
	addRun(t, store, "2026-08-29", "quantum computing", long, 2)

	results, err := store.Retrieve(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatal("expected one run")
	}
	if !utf8.ValidString(results[0].Excerpt) {
		t.Errorf("excerpt split a multibyte rune: %q", results[0].Excerpt)
	}
	if !strings.HasSuffix(results[0].Excerpt, "…") {
		t.Errorf("expected truncation marker, got %q", results[0].Excerpt)
	}
}

func TestSummarize(t *testing.T) {
	store, _ := testStore(t)
	seedRuns(t, store)

	stats, err := store.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Runs != 3 {
		t.Errorf("expected 3 runs, got %d", stats.Runs)
	}
	if stats.Subjects != 2 {
		t.Errorf("expected 2 subjects, got %d", stats.Subjects)
	}
	if stats.FirstDate != "2026-08-28" || stats.LastDate != "2026-08-29" {
		t.Errorf("unexpected date range %s..%s", stats.FirstDate, stats.LastDate)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	store, _ := testStore(t)

	stats, err := store.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Runs != 0 || stats.Subjects != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestExportYAML(t *testing.T) {
	store, dir := testStore(t)
	seedRuns(t, store)

	if err := store.ExportYAML(context.Background(), QueryOptions{}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []QueryResult
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 exported runs, got %d", len(entries))
	}
}

func TestExportJSONWithFilter(t *testing.T) {
	store, dir := testStore(t)
	seedRuns(t, store)

	if err := store.ExportJSON(context.Background(), QueryOptions{Subject: "quantum computing"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entries []QueryResult
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 exported runs, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Subject != "quantum computing" {
			t.Errorf("unexpected subject %s in filtered export", e.Subject)
		}
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{}).IsEmpty() {
		t.Error("zero options should be empty")
	}
	if (QueryOptions{Subject: "x"}).IsEmpty() {
		t.Error("subject filter should not be empty")
	}
	if (QueryOptions{Query: "x"}).IsEmpty() {
		t.Error("search query should not be empty")
	}
}
