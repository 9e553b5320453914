// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify pushes a run summary to an external webhook. Delivery is
// best-effort: by the time a notification goes out the report is already
// archived and recorded, so a failure here is logged and forgotten.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/report-engine/pkg/types"
)

const (
	excerptLimit  = 500
	fallbackLimit = 1500
)

// Dispatcher posts run summaries to one configured webhook.
type Dispatcher struct {
	url       string
	userAgent string
	client    *http.Client
	log       *logrus.Logger
}

// NewDispatcher builds a dispatcher. An empty webhook URL yields a
// dispatcher whose Notify is a no-op returning false.
func NewDispatcher(cfg types.NotifyConfig, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		url:       cfg.WebhookURL,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log,
	}
}

// Configured reports whether a webhook URL is set.
func (d *Dispatcher) Configured() bool { return d.url != "" }

// Notify sends one best-effort POST summarizing the record. If the
// markdown message is rejected it retries once as plain text, mirroring
// webhook endpoints that only accept the simpler message type. The return
// value reports delivery; it never affects the run's terminal state.
func (d *Dispatcher) Notify(ctx context.Context, rec types.ReportRecord, artifactPath string) bool {
	if !d.Configured() {
		return false
	}

	summary := summaryText(rec, artifactPath)

	if err := d.post(ctx, markdownPayload(summary)); err == nil {
		return true
	} else if d.log != nil {
		d.log.WithField("subject", rec.Subject).Warnf("webhook markdown send failed: %v", err)
	}

	if err := d.post(ctx, textPayload(summary)); err != nil {
		if d.log != nil {
			d.log.WithField("subject", rec.Subject).Warnf("webhook fallback send failed: %v", err)
		}
		return false
	}
	return true
}

// summaryText formats the subject, date, body excerpt, and artifact
// location into the notification message.
func summaryText(rec types.ReportRecord, artifactPath string) string {
	excerpt := strings.TrimSpace(rec.Body)
	if len(excerpt) > excerptLimit {
		excerpt = truncate(excerpt, excerptLimit) + "…"
	}
	return fmt.Sprintf("**[%s] %s**\n%s\n\nArchived at: %s", rec.Date, rec.Subject, excerpt, artifactPath)
}

func markdownPayload(text string) map[string]any {
	return map[string]any{
		"msgtype":  "markdown",
		"markdown": map[string]string{"text": text},
	}
}

func textPayload(text string) map[string]any {
	return map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": truncate(text, fallbackLimit)},
	}
}

// truncate cuts s to at most limit bytes, backing up so a multibyte rune
// is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func (d *Dispatcher) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
