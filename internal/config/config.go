// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the effective pipeline configuration from layered
// sources: environment variables, then the config file, then the secrets
// directory, then built-in defaults. The first source returning a non-empty
// value for a key wins.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/report-engine/internal/secrets"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Canonical credential keys resolved through the layered source chain.
const (
	KeyLLMAPIKey    = "llm_api_key"
	KeyLLMBaseURL   = "llm_base_url"
	KeyLLMModel     = "llm_model"
	KeySearchAPIKey = "search_api_key"
	KeyWebhookURL   = "webhook_url"
)

// Built-in defaults, the lowest resolution layer.
const (
	DefaultLLMBaseURL = "https://api.deepseek.com"
	DefaultLLMModel   = "deepseek-chat"

	defaultSearchMaxResults = 8
	defaultSearchTimeout    = 30 * time.Second
	defaultLLMTimeout       = 90 * time.Second
	defaultNotifyTimeout    = 20 * time.Second
	defaultTemperature      = 0.5
	defaultSnippetBudget    = 6000
	defaultContextRuns      = 5
	defaultLedgerPath       = "data/history.yaml"
	defaultArchiveDir       = "reports"
	defaultIndexDir         = "index"
	defaultIndexMaxResults  = 20
	defaultCron             = "@daily"
	defaultUserAgent        = "report-engine/0.1"
)

// envAliases maps each canonical key to its accepted environment variable
// names, highest precedence first.
var envAliases = map[string][]string{
	KeyLLMAPIKey:    {"LLM_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY"},
	KeyLLMBaseURL:   {"LLM_BASE_URL"},
	KeyLLMModel:     {"LLM_MODEL"},
	KeySearchAPIKey: {"TAVILY_API_KEY", "SEARCH_API_KEY"},
	KeyWebhookURL:   {"REPORT_WEBHOOK_URL", "FEISHU_WEBHOOK", "WEBHOOK_URL"},
}

// fileKeys maps each canonical key to its path in the config file.
var fileKeys = map[string]string{
	KeyLLMAPIKey:    "llm.api_key",
	KeyLLMBaseURL:   "llm.base_url",
	KeyLLMModel:     "llm.model",
	KeySearchAPIKey: "search.api_key",
	KeyWebhookURL:   "notify.webhook_url",
}

// secretKeys maps each canonical key to its secrets-directory filename.
var secretKeys = map[string]string{
	KeyLLMAPIKey:    secrets.KeyLLMAPIKey,
	KeySearchAPIKey: secrets.KeySearchAPIKey,
	KeyWebhookURL:   secrets.KeyWebhookURL,
}

// Error reports required keys still empty after all sources were consulted.
// It is fatal: the pipeline must not start with missing credentials.
type Error struct {
	Missing []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// Source returns the value a configuration layer holds for a canonical key,
// or "" if the layer has none.
type Source func(key string) string

// EnvSource resolves keys from environment variables via getenv, trying
// each accepted alias in order.
func EnvSource(getenv func(string) string) Source {
	return func(key string) string {
		for _, name := range envAliases[key] {
			if v := strings.TrimSpace(getenv(name)); v != "" {
				return v
			}
		}
		return ""
	}
}

// FileSource resolves keys from a loaded viper config file.
func FileSource(v *viper.Viper) Source {
	return func(key string) string {
		if v == nil {
			return ""
		}
		path, ok := fileKeys[key]
		if !ok {
			return ""
		}
		return strings.TrimSpace(v.GetString(path))
	}
}

// SecretsSource resolves keys from a loaded secrets map.
func SecretsSource(loaded map[string]string) Source {
	return func(key string) string {
		name, ok := secretKeys[key]
		if !ok {
			return ""
		}
		return loaded[name]
	}
}

// DefaultSource resolves keys from built-in defaults. Credentials have no
// default; an empty value here means the key is missing.
func DefaultSource() Source {
	defaults := map[string]string{
		KeyLLMBaseURL: DefaultLLMBaseURL,
		KeyLLMModel:   DefaultLLMModel,
	}
	return func(key string) string {
		return defaults[key]
	}
}

// lookup returns the first non-empty value for key across sources.
func lookup(key string, sources []Source) string {
	for _, src := range sources {
		if v := src(key); v != "" {
			return v
		}
	}
	return ""
}

// Options carries the inputs to Resolve. A nil Getenv disables the
// environment layer (useful in tests); a nil File disables the file layer.
type Options struct {
	Getenv  func(string) string
	File    *viper.Viper
	Secrets map[string]string
}

// Resolve produces the effective configuration. It returns *Error when a
// required credential (llm_api_key, search_api_key) is still empty after
// all layers, before any network call is made.
func Resolve(opts Options) (types.Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	sources := []Source{
		EnvSource(getenv),
		FileSource(opts.File),
		SecretsSource(opts.Secrets),
		DefaultSource(),
	}

	cfg := fileSettings(opts.File)
	cfg.LLM.APIKey = lookup(KeyLLMAPIKey, sources)
	cfg.LLM.BaseURL = lookup(KeyLLMBaseURL, sources)
	cfg.LLM.Model = lookup(KeyLLMModel, sources)
	cfg.Search.APIKey = lookup(KeySearchAPIKey, sources)
	cfg.Notify.WebhookURL = lookup(KeyWebhookURL, sources)

	var missing []string
	if cfg.LLM.APIKey == "" {
		missing = append(missing, KeyLLMAPIKey)
	}
	if cfg.Search.APIKey == "" {
		missing = append(missing, KeySearchAPIKey)
	}
	if len(missing) > 0 {
		return types.Config{}, &Error{Missing: missing}
	}

	return cfg, nil
}

// Settings returns only the non-credential configuration: paths, limits,
// and the schedule, from the config file plus defaults. Local inspection
// commands use it to read an existing archive or ledger without API
// credentials; the required-key check stays with Resolve.
func Settings(file *viper.Viper) types.Config {
	return fileSettings(file)
}

// fileSettings reads the non-credential settings from the config file and
// fills defaults for anything unset.
func fileSettings(v *viper.Viper) types.Config {
	var cfg types.Config
	temperatureSet := false
	if v != nil {
		cfg.Search.MaxResults = v.GetInt("search.max_results")
		cfg.Search.Timeout = v.GetDuration("search.timeout")
		cfg.Search.Retry.MaxAttempts = v.GetInt("search.retry.max_attempts")
		cfg.Search.Retry.BackoffBase = v.GetDuration("search.retry.backoff_base")
		cfg.LLM.Timeout = v.GetDuration("llm.timeout")
		// IsSet keeps an explicit zero temperature distinguishable from unset.
		if v.IsSet("llm.temperature") {
			cfg.LLM.Temperature = v.GetFloat64("llm.temperature")
			temperatureSet = true
		}
		cfg.LLM.SnippetBudget = v.GetInt("llm.snippet_budget")
		cfg.LLM.Retry.MaxAttempts = v.GetInt("llm.retry.max_attempts")
		cfg.LLM.Retry.BackoffBase = v.GetDuration("llm.retry.backoff_base")
		cfg.Notify.Timeout = v.GetDuration("notify.timeout")
		cfg.History.LedgerPath = v.GetString("history.ledger_path")
		cfg.History.ContextRuns = v.GetInt("history.context_runs")
		cfg.Archive.Dir = v.GetString("archive.dir")
		cfg.Index.Dir = v.GetString("index.dir")
		cfg.Index.MaxResults = v.GetInt("index.max_results")
		cfg.Schedule.Cron = v.GetString("schedule.cron")
		cfg.Subjects = v.GetStringSlice("subjects")
	}

	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = defaultSearchMaxResults
	}
	if cfg.Search.Timeout <= 0 {
		cfg.Search.Timeout = defaultSearchTimeout
	}
	if cfg.Search.UserAgent == "" {
		cfg.Search.UserAgent = defaultUserAgent
	}
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = defaultLLMTimeout
	}
	if cfg.LLM.UserAgent == "" {
		cfg.LLM.UserAgent = defaultUserAgent
	}
	if !temperatureSet {
		cfg.LLM.Temperature = defaultTemperature
	}
	if cfg.LLM.SnippetBudget <= 0 {
		cfg.LLM.SnippetBudget = defaultSnippetBudget
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = defaultNotifyTimeout
	}
	if cfg.History.LedgerPath == "" {
		cfg.History.LedgerPath = defaultLedgerPath
	}
	if cfg.History.ContextRuns <= 0 {
		cfg.History.ContextRuns = defaultContextRuns
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = defaultArchiveDir
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = defaultIndexDir
	}
	if cfg.Index.MaxResults <= 0 {
		cfg.Index.MaxResults = defaultIndexMaxResults
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = defaultCron
	}

	return cfg
}
