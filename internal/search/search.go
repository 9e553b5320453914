// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the web-search provider for a subject and returns
// a bounded, URL-deduplicated set of result snippets.
package search

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/report-engine/internal/retry"
	"github.com/pdiddy/report-engine/pkg/types"
)

// Backend queries a single search provider. Implementations follow the
// Strategy pattern so tests can substitute a mock.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// Output holds the collected results and collection statistics.
type Output struct {
	Results     []types.SearchResult
	DupsRemoved int

	// Unavailable marks a subject whose provider calls all failed. The
	// pipeline proceeds with the empty result set instead of aborting.
	Unavailable bool

	// Err is the final provider error when Unavailable is set.
	Err error
}

// Collector retrieves search results for one subject per call.
type Collector struct {
	Backend Backend
	Policy  retry.Policy
	Log     *logrus.Logger
}

// Collect queries the provider once per subject, retrying per the policy.
// Results keep provider relevance order; duplicates by normalized URL are
// dropped. When every attempt fails the subject degrades to an empty
// result set rather than failing the run.
func (c *Collector) Collect(ctx context.Context, subject string, maxResults int) Output {
	var raw []types.SearchResult
	err := retry.Do(ctx, c.Policy, func(ctx context.Context) error {
		results, err := c.Backend.Search(ctx, subject, maxResults)
		if err != nil {
			return err
		}
		raw = results
		return nil
	})
	if err != nil {
		if c.Log != nil {
			c.Log.WithField("subject", subject).Warnf("search unavailable: %v", err)
		}
		return Output{Unavailable: true, Err: err}
	}

	deduped, removed := dedupeByURL(raw)
	if maxResults > 0 && len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}
	return Output{Results: deduped, DupsRemoved: removed}
}

// dedupeByURL drops results whose normalized URL was already seen,
// keeping the first (highest-ranked) occurrence.
func dedupeByURL(results []types.SearchResult) ([]types.SearchResult, int) {
	seen := make(map[string]bool, len(results))
	var deduped []types.SearchResult
	removed := 0

	for _, r := range results {
		key := normalizeURL(r.URL)
		if key != "" && seen[key] {
			removed++
			continue
		}
		if key != "" {
			seen[key] = true
		}
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// normalizeURL lowercases the URL and strips the query string and any
// trailing slash, so tracking-parameter variants collapse to one entry.
func normalizeURL(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	return strings.TrimRight(url, "/")
}
