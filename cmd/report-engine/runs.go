// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/runindex"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the report archive index (search, export, stats)",
	Long: `Runs manages the SQLite index over archived reports. Use subcommands
to search report bodies with full-text queries, export the index, or
show archive statistics.`,
}

// --- query subcommand ---

var runsQueryCmd = &cobra.Command{
	Use:   "query [search terms]",
	Short: "Search archived reports with full-text search and filters",
	Long: `Query searches archived report bodies using FTS5 full-text search,
structured filters (subject, date), or a combination of both. Results
include the artifact path of each matching report.`,
	RunE: runRunsQuery,
}

func runRunsQuery(cmd *cobra.Command, args []string) error {
	store, err := openIndex()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := indexOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms, --subject, or --date")
	}

	results, err := store.Retrieve(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRunsOutput(results, jsonOutput)
}

func formatRunsOutput(results []runindex.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-24s  %-8s  %s\n", "Date", "Subject", "Sources", "Path")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))

	for _, r := range results {
		subject := r.Subject
		if len(subject) > 24 {
			subject = subject[:21] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-12s  %-24s  %-8d  %s\n", r.Date, subject, r.SourceCount, r.Path)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

// --- export subcommand ---

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the report index to YAML or JSON",
	Long: `Export writes the indexed runs (or a filtered subset) to export.yaml
or export.json in the index directory. Supports the same filter flags
as query for partial exports.`,
	RunE: runRunsExport,
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := resolveSettings()
	store, err := runindex.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := indexOptsFromFlags(cmd, args)

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.yaml\n", cfg.Index.Dir)
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s/export.json\n", cfg.Index.Dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- stats subcommand ---

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openIndex()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Summarize(context.Background())
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Printf("runs:     %d\n", stats.Runs)
		fmt.Printf("subjects: %d\n", stats.Subjects)
		if stats.FirstDate != "" {
			fmt.Printf("range:    %s .. %s\n", stats.FirstDate, stats.LastDate)
		}
		return nil
	},
}

// --- shared helpers ---

func openIndex() (*runindex.Store, error) {
	return runindex.NewStore(resolveSettings().Index)
}

func indexOptsFromFlags(cmd *cobra.Command, args []string) runindex.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	subject, _ := cmd.Flags().GetString("subject")
	date, _ := cmd.Flags().GetString("date")
	limit, _ := cmd.Flags().GetInt("limit")

	return runindex.QueryOptions{
		Query:      queryText,
		Subject:    subject,
		Date:       date,
		MaxResults: limit,
	}
}

func init() {
	// Query flags.
	runsQueryCmd.Flags().String("query", "", "full-text search query over report bodies")
	runsQueryCmd.Flags().String("subject", "", "filter by subject")
	runsQueryCmd.Flags().String("date", "", "filter by run date (YYYY-MM-DD)")
	runsQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	runsQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	runsExportCmd.Flags().String("query", "", "full-text search filter for partial export")
	runsExportCmd.Flags().String("subject", "", "filter by subject for partial export")
	runsExportCmd.Flags().String("date", "", "filter by run date for partial export")
	runsExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = all)")

	// Stats flags.
	runsStatsCmd.Flags().Bool("json", false, "output stats as JSON")

	// Wire subcommands.
	runsCmd.AddCommand(runsQueryCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsStatsCmd)

	rootCmd.AddCommand(runsCmd)
}
