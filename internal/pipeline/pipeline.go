// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a daily run end to end: for each configured
// subject it checks the run ledger, collects fresh sources, synthesizes
// a report, archives it, records the run, and notifies. Subjects are
// processed sequentially and in isolation, so one subject's failure
// never blocks the rest.
package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Collector gathers fresh search results for a subject.
type Collector interface {
	Collect(ctx context.Context, subject string, maxResults int) search.Output
}

// Generator synthesizes a report body from search results and prior
// run dates.
type Generator interface {
	Generate(ctx context.Context, subject, date string, results []types.SearchResult, historyDates []string) (string, error)
}

// Archiver persists a report and returns the artifact path.
type Archiver interface {
	Write(rec types.ReportRecord) (string, error)
}

// Recorder is the dedup ledger of completed runs.
type Recorder interface {
	HasRun(date, subject string) bool
	Record(date, subject string)
	ContextFor(subject string, n int) []string
	Save() error
}

// Notifier delivers a completion message for an archived report.
type Notifier interface {
	Notify(ctx context.Context, rec types.ReportRecord, artifactPath string) bool
}

// Indexer adds an archived report to the searchable run index.
type Indexer interface {
	Add(ctx context.Context, rec types.ReportRecord, artifactPath string) error
}

// Pipeline wires the stages of a run. Notifier and Indexer may be nil;
// both are supplementary to the archived artifact.
type Pipeline struct {
	Collector Collector
	Generator Generator
	Archiver  Archiver
	Ledger    Recorder
	Notifier  Notifier
	Indexer   Indexer
	Log       *logrus.Logger

	// MaxResults caps search results per subject.
	MaxResults int

	// ContextRuns is how many prior run dates feed the generator.
	ContextRuns int

	// Force re-runs subjects the ledger already records for the date.
	Force bool
}

// Run executes one report run for the given date over the subjects, in
// order. It always returns a summary; per-subject failures are captured
// in the outcomes rather than aborting the run.
func (p *Pipeline) Run(ctx context.Context, date string, subjects []string) types.RunSummary {
	summary := types.RunSummary{Date: date}
	for _, subject := range subjects {
		summary.Outcomes = append(summary.Outcomes, p.runSubject(ctx, date, subject))
	}
	return summary
}

func (p *Pipeline) runSubject(ctx context.Context, date, subject string) types.SubjectOutcome {
	out := types.SubjectOutcome{Subject: subject, State: types.StatePending}
	log := p.Log.WithFields(logrus.Fields{"subject": subject, "date": date})

	out.State = types.StateCheckHistory
	if p.Ledger.HasRun(date, subject) && !p.Force {
		log.Info("already generated, skipping")
		out.State = types.StateSkipped
		return out
	}

	out.State = types.StateSearching
	collected := p.Collector.Collect(ctx, subject, p.MaxResults)
	out.SourceCount = len(collected.Results)
	out.SearchDegraded = collected.Unavailable
	if collected.Unavailable {
		log.Warn("search unavailable, generating from model knowledge only")
	} else {
		log.WithField("results", len(collected.Results)).Info("sources collected")
	}

	out.State = types.StateGenerating
	body, err := p.Generator.Generate(ctx, subject, date, collected.Results,
		p.Ledger.ContextFor(subject, p.ContextRuns))
	if err != nil {
		return p.fail(log, out, err)
	}

	rec := types.ReportRecord{
		Date:        date,
		Subject:     subject,
		Body:        body,
		SourceCount: len(collected.Results),
	}

	out.State = types.StateWriting
	path, err := p.Archiver.Write(rec)
	if err != nil {
		return p.fail(log, out, err)
	}
	out.ArtifactPath = path
	log.WithField("path", path).Info("report archived")

	// The ledger is updated only after the artifact exists, so a crash
	// between the two re-runs the subject instead of losing the report.
	out.State = types.StateRecording
	p.Ledger.Record(date, subject)
	if err := p.Ledger.Save(); err != nil {
		return p.fail(log, out, err)
	}
	if p.Indexer != nil {
		if err := p.Indexer.Add(ctx, rec, path); err != nil {
			log.Warnf("run index update failed: %v", err)
		}
	}

	out.State = types.StateNotifying
	if p.Notifier != nil {
		out.Notified = p.Notifier.Notify(ctx, rec, path)
	}

	out.State = types.StateDone
	return out
}

// fail marks the outcome failed at its current state. The artifact path,
// if already written, stays on the outcome.
func (p *Pipeline) fail(log *logrus.Entry, out types.SubjectOutcome, err error) types.SubjectOutcome {
	log.WithField("stage", string(out.State)).Errorf("subject failed: %v", err)
	out.FailedAt = out.State
	out.State = types.StateFailed
	out.Reason = err.Error()
	return out
}
