// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/generate"
	"github.com/pdiddy/report-engine/internal/history"
	"github.com/pdiddy/report-engine/internal/notify"
	"github.com/pdiddy/report-engine/internal/pipeline"
	"github.com/pdiddy/report-engine/internal/report"
	"github.com/pdiddy/report-engine/internal/retry"
	"github.com/pdiddy/report-engine/internal/runindex"
	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/pkg/types"
)

const dateFmt = "2006-01-02"

// errNoSubjects is returned when neither flags nor config supply subjects.
var errNoSubjects = fmt.Errorf("no subjects configured: use --subject, --subjects-file, or the subjects list in the config file")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate reports for the configured subjects",
	Long: `Run executes one report run: for each subject it searches for fresh
sources, synthesizes a report, writes it to the archive, records the run,
and notifies the webhook if one is configured.

Subjects already recorded for the date are skipped unless --force is set.
A failing subject does not stop the others; per-subject outcomes are
reported at the end. The command exits non-zero only when configuration
is unusable.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format(dateFmt)
	}
	if _, err := time.Parse(dateFmt, date); err != nil {
		return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
	}

	subjects, err := resolveSubjects(cmd, cfg)
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	p, cleanup, err := buildPipeline(cfg, log, force)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := p.Run(cmd.Context(), date, subjects)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return printSummary(summary, jsonOutput)
}

// resolveSubjects picks the subject list: --subject flags win, then
// --subjects-file, then the config file.
func resolveSubjects(cmd *cobra.Command, cfg types.Config) ([]string, error) {
	if flagged, _ := cmd.Flags().GetStringArray("subject"); len(flagged) > 0 {
		return pipeline.CleanSubjects(flagged), nil
	}

	if path, _ := cmd.Flags().GetString("subjects-file"); path != "" {
		return pipeline.LoadSubjects(path)
	}

	subjects := pipeline.CleanSubjects(cfg.Subjects)
	if len(subjects) == 0 {
		return nil, errNoSubjects
	}
	return subjects, nil
}

// buildPipeline assembles the run pipeline from the resolved config. The
// returned cleanup releases the run index.
func buildPipeline(cfg types.Config, log *logrus.Logger, force bool) (*pipeline.Pipeline, func(), error) {
	ledger, err := history.Load(cfg.History.LedgerPath)
	if err != nil {
		return nil, nil, err
	}

	p := &pipeline.Pipeline{
		Collector: &search.Collector{
			Backend: search.NewTavilyBackend(cfg.Search),
			Policy:  retry.FromConfig(cfg.Search.Retry),
			Log:     log,
		},
		Generator: &generate.Generator{
			Backend:       generate.NewChatBackend(cfg.LLM),
			Policy:        retry.FromConfig(cfg.LLM.Retry),
			SnippetBudget: cfg.LLM.SnippetBudget,
		},
		Archiver:    &report.Writer{Dir: cfg.Archive.Dir},
		Ledger:      ledger,
		Notifier:    notify.NewDispatcher(cfg.Notify, log),
		Log:         log,
		MaxResults:  cfg.Search.MaxResults,
		ContextRuns: cfg.History.ContextRuns,
		Force:       force,
	}

	cleanup := func() {}

	// The index is supplementary; a run proceeds without it.
	store, err := runindex.NewStore(cfg.Index)
	if err != nil {
		log.Warnf("run index unavailable: %v", err)
	} else {
		p.Indexer = store
		cleanup = func() { store.Close() }
	}

	return p, cleanup, nil
}

func printSummary(summary types.RunSummary, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	for _, out := range summary.Outcomes {
		switch out.State {
		case types.StateDone:
			line := fmt.Sprintf("done    %s  %s (%d sources)", out.Subject, out.ArtifactPath, out.SourceCount)
			if out.SearchDegraded {
				line += " [search degraded]"
			}
			fmt.Println(line)
		case types.StateSkipped:
			fmt.Printf("skipped %s  already generated for %s\n", out.Subject, summary.Date)
		case types.StateFailed:
			fmt.Printf("failed  %s  at %s: %s\n", out.Subject, out.FailedAt, out.Reason)
		}
	}

	fmt.Printf("\n%s: %d done, %d skipped, %d failed\n",
		summary.Date, summary.Done(), summary.Skipped(), summary.Failed())
	return nil
}

func init() {
	runCmd.Flags().String("date", "", "run date in YYYY-MM-DD form (default: today)")
	runCmd.Flags().StringArray("subject", nil, "subject to report on (repeatable, overrides config)")
	runCmd.Flags().String("subjects-file", "", "YAML file listing subjects")
	runCmd.Flags().Bool("force", false, "re-run subjects already recorded for the date")
	runCmd.Flags().Bool("json", false, "output the run summary as JSON")

	rootCmd.AddCommand(runCmd)
}
