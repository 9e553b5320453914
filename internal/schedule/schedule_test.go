// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-engine/internal/logging"
	"github.com/pdiddy/report-engine/pkg/types"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-25 * time.Hour)

	tests := []struct {
		name string
		spec string
		last *time.Time
		want bool
	}{
		{"never run is always due", "@daily", nil, true},
		{"daily not yet elapsed", "@daily", &hourAgo, false},
		{"daily elapsed", "@daily", &dayAgo, true},
		{"empty spec treated as daily", "", &hourAgo, false},
		{"hourly elapsed", "@hourly", &hourAgo, true},
		{"cron fires between last and now", "0 8 * * *", &dayAgo, true},
		{"cron not yet reached", "0 23 * * *", &hourAgo, false},
		{"invalid spec falls back to daily", "not a cron", &dayAgo, true},
		{"invalid spec fallback not elapsed", "not a cron", &hourAgo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.spec, tt.last, now))
		})
	}
}

func TestTickFiresOnceUntilNextDue(t *testing.T) {
	var dates []string
	s := New(types.ScheduleConfig{Cron: "@daily"}, func(_ context.Context, date string) {
		dates = append(dates, date)
	}, logging.Discard())

	clock := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.tick(context.Background())
	s.tick(context.Background())
	require.Equal(t, []string{"2026-08-30"}, dates, "second tick same day must not fire")

	clock = clock.Add(24 * time.Hour)
	s.tick(context.Background())
	assert.Equal(t, []string{"2026-08-30", "2026-08-31"}, dates)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s := New(types.ScheduleConfig{Cron: "@daily"}, func(context.Context, string) {}, logging.Discard())
	s.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}
