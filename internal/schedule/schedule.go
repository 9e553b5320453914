// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs the report pipeline unattended on a cron
// trigger. It polls on a coarse ticker and fires when the configured
// expression says a run is due.
package schedule

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/report-engine/pkg/types"
)

const dateFmt = "2006-01-02"

// Runner executes one report run for the given date.
type Runner func(ctx context.Context, date string)

// Scheduler fires a Runner whenever the cron expression is due.
type Scheduler struct {
	cron     string
	interval time.Duration
	run      Runner
	log      *logrus.Logger

	lastRun *time.Time
	now     func() time.Time
}

// New builds a scheduler polling once a minute.
func New(cfg types.ScheduleConfig, run Runner, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cfg.Cron,
		interval: time.Minute,
		run:      run,
		log:      log,
		now:      time.Now,
	}
}

// Start blocks, firing runs until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.WithField("cron", s.cron).Info("scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	if !IsDue(s.cron, s.lastRun, now) {
		return
	}
	date := now.Format(dateFmt)
	s.log.WithField("date", date).Info("scheduled run due")
	s.run(ctx, date)
	fired := now
	s.lastRun = &fired
}

// IsDue reports whether a run is due at now given the last run time.
// Supports "@daily", "@hourly", and standard 5-field cron expressions;
// an unparsable spec falls back to daily. A spec that has never fired
// is always due.
func IsDue(cronSpec string, last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	switch cronSpec {
	case "@daily", "":
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return now.Sub(*last) >= 24*time.Hour
		}
		return !expr.Next(*last).After(now)
	}
}
