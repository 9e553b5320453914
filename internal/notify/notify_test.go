// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-engine/internal/logging"
	"github.com/pdiddy/report-engine/pkg/types"
)

func dispatcherFor(url string) *Dispatcher {
	return NewDispatcher(types.NotifyConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "report-engine/test"},
		WebhookURL: url,
	}, logging.Discard())
}

func sampleRecord() types.ReportRecord {
	return types.ReportRecord{
		Date:        "2026-08-30",
		Subject:     "quantum computing",
		Body:        "Today saw three notable announcements in error correction.",
		SourceCount: 4,
	}
}

func TestNotifySendsMarkdownPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sent := dispatcherFor(srv.URL).Notify(context.Background(), sampleRecord(), "reports/2026-08-30_quantum-computing.md")

	assert.True(t, sent)
	assert.Equal(t, "markdown", got["msgtype"])
	md, ok := got["markdown"].(map[string]any)
	require.True(t, ok)
	text, _ := md["text"].(string)
	assert.Contains(t, text, "2026-08-30")
	assert.Contains(t, text, "quantum computing")
	assert.Contains(t, text, "reports/2026-08-30_quantum-computing.md")
}

func TestNotifyFallsBackToPlainText(t *testing.T) {
	var payloads []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p map[string]any
		require.NoError(t, json.Unmarshal(body, &p))
		payloads = append(payloads, p)
		if p["msgtype"] == "markdown" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sent := dispatcherFor(srv.URL).Notify(context.Background(), sampleRecord(), "reports/r.md")

	assert.True(t, sent)
	require.Len(t, payloads, 2)
	assert.Equal(t, "markdown", payloads[0]["msgtype"])
	assert.Equal(t, "text", payloads[1]["msgtype"])
}

func TestNotifyReturnsFalseWhenBothSendsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.False(t, dispatcherFor(srv.URL).Notify(context.Background(), sampleRecord(), "reports/r.md"))
}

func TestNotifyNoOpWithoutURL(t *testing.T) {
	d := dispatcherFor("")
	assert.False(t, d.Configured())
	assert.False(t, d.Notify(context.Background(), sampleRecord(), "reports/r.md"))
}

func TestSummaryTruncatesLongBodies(t *testing.T) {
	rec := sampleRecord()
	rec.Body = strings.Repeat("a", 2*excerptLimit)

	text := summaryText(rec, "reports/r.md")

	assert.Less(t, len(text), 2*excerptLimit)
	assert.Contains(t, text, "…")
}

func TestSummaryTruncationKeepsRunesIntact(t *testing.T) {
	rec := sampleRecord()
	rec.Body = strings.Repeat("量子計算の誤り訂正で進展。", excerptLimit)

	text := summaryText(rec, "reports/r.md")

	assert.True(t, utf8.ValidString(text), "truncation must not split a multibyte rune")
	assert.Contains(t, text, "…")
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	s := "наблюдение за отраслью"
	for limit := 0; limit <= len(s); limit++ {
		out := truncate(s, limit)
		assert.True(t, utf8.ValidString(out), "limit %d", limit)
		assert.LessOrEqual(t, len(out), limit)
	}
	assert.Equal(t, s, truncate(s, len(s)+10))
}
