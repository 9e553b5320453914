// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/report-engine/internal/pipeline"
	"github.com/pdiddy/report-engine/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run unattended on the configured cron trigger",
	Long: `Schedule blocks and fires a report run whenever the configured cron
expression is due ("@daily" by default). Each firing behaves exactly like
the run command; the dedup ledger keeps a restart from regenerating
reports already produced for the day.

Stop with SIGINT or SIGTERM.`,
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	subjects := pipeline.CleanSubjects(cfg.Subjects)
	if path, _ := cmd.Flags().GetString("subjects-file"); path != "" {
		if subjects, err = pipeline.LoadSubjects(path); err != nil {
			return err
		}
	}
	if len(subjects) == 0 {
		return errNoSubjects
	}

	p, cleanup, err := buildPipeline(cfg, log, false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := schedule.New(cfg.Schedule, func(ctx context.Context, date string) {
		summary := p.Run(ctx, date, subjects)
		log.WithFields(logrus.Fields{
			"date":    summary.Date,
			"done":    summary.Done(),
			"skipped": summary.Skipped(),
			"failed":  summary.Failed(),
		}).Info("scheduled run finished")
	}, log)

	s.Start(ctx)
	return nil
}

func init() {
	scheduleCmd.Flags().String("subjects-file", "", "YAML file listing subjects")

	rootCmd.AddCommand(scheduleCmd)
}
