// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures passed between pipeline stages.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "report-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig describes the retry policy applied to a stage's network calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first
	// (default 3: one call plus two retries).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffBase is the base duration for exponential backoff between
	// attempts (default 1s: 1s, 2s, 4s, ...).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`
}

// SearchConfig holds settings for the search collection stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the search provider bearer credential. Required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults is the maximum number of results per subject (default 8).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Retry is the policy for failed provider calls.
	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// LLMConfig holds settings for the report generation stage.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the completion provider bearer credential. Required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the OpenAI-compatible API root (default "https://api.deepseek.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the completion model identifier (default "deepseek-chat").
	Model string `json:"model" yaml:"model"`

	// Temperature is the sampling temperature (default 0.5).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// SnippetBudget caps the total characters of search snippets included
	// in the synthesis prompt (default 6000).
	SnippetBudget int `json:"snippet_budget" yaml:"snippet_budget"`

	// Retry is the policy for failed completion calls.
	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// NotifyConfig holds settings for the webhook notification stage.
type NotifyConfig struct {
	HTTPConfig `yaml:",inline"`

	// WebhookURL is the outbound notification endpoint. Empty disables
	// notification without failing the run.
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
}

// HistoryConfig holds settings for the run-history ledger.
type HistoryConfig struct {
	// LedgerPath is the YAML file recording completed (date, subject) runs
	// (default "data/history.yaml").
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`

	// ContextRuns is how many prior runs per subject feed the continuity
	// context given to the generator (default 5).
	ContextRuns int `json:"context_runs" yaml:"context_runs"`
}

// ArchiveConfig holds settings for the report archive.
type ArchiveConfig struct {
	// Dir is the directory receiving dated report artifacts (default "reports").
	Dir string `json:"dir" yaml:"dir"`
}

// IndexConfig holds settings for the SQLite run index.
type IndexConfig struct {
	// Dir is the directory holding the index database (default "index").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ScheduleConfig holds settings for the unattended scheduler.
type ScheduleConfig struct {
	// Cron is the trigger expression: "@daily" or a 5-field cron spec
	// (default "@daily").
	Cron string `json:"cron" yaml:"cron"`
}

// Config groups all stage configurations resolved once per process.
// It is immutable after resolution.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Notify   NotifyConfig   `json:"notify" yaml:"notify"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`
	Index    IndexConfig    `json:"index" yaml:"index"`
	Schedule ScheduleConfig `json:"schedule" yaml:"schedule"`

	// Subjects lists the topics a run covers, processed sequentially.
	Subjects []string `json:"subjects" yaml:"subjects"`
}
