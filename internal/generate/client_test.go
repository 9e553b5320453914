// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/report-engine/internal/retry"
	"github.com/pdiddy/report-engine/pkg/types"
)

func backendFor(ts *httptest.Server) *ChatBackend {
	return NewChatBackend(types.LLMConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		APIKey:     "sk-test",
		BaseURL:    ts.URL,
		Model:      "deepseek-chat",
		Temperature: 0.5,
	})
}

func TestChatBackendComplete(t *testing.T) {
	var gotReq chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  The report.  "}},
			},
		})
	}))
	defer ts.Close()

	body, err := backendFor(ts).Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, "The report.", body)

	assert.Equal(t, "deepseek-chat", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user text", gotReq.Messages[1].Content)
	assert.InDelta(t, 0.5, gotReq.Temperature, 1e-9)
}

func TestChatBackendRateLimitIsStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := backendFor(ts).Complete(context.Background(), "s", "u")
	var status *retry.StatusError
	require.ErrorAs(t, err, &status)
	assert.True(t, status.Transient())
}

func TestChatBackendNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	_, err := backendFor(ts).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
