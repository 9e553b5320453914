// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchResult is one snippet returned by the search provider. Produced
// fresh each run and consumed within it; never persisted individually.
type SearchResult struct {
	// Title is the result headline.
	Title string `json:"title" yaml:"title"`

	// URL is the source location, also the dedup key within a collection.
	URL string `json:"url" yaml:"url"`

	// Snippet is the provider's content excerpt.
	Snippet string `json:"snippet" yaml:"snippet"`

	// PublishedAt is the publication time when the provider reports one.
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// ReportRecord is the outcome of one successful run for one subject on one
// date. Immutable after creation.
type ReportRecord struct {
	// Date is the run date in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// Subject is the topic the report covers.
	Subject string `json:"subject" yaml:"subject"`

	// Body is the synthesized report text.
	Body string `json:"body" yaml:"body"`

	// SourceCount is how many search results informed the report.
	SourceCount int `json:"source_count" yaml:"source_count"`
}

// RunState tracks a subject through the pipeline state machine.
type RunState string

const (
	StatePending      RunState = "PENDING"
	StateCheckHistory RunState = "CHECK_HISTORY"
	StateSkipped      RunState = "SKIPPED"
	StateSearching    RunState = "SEARCHING"
	StateGenerating   RunState = "GENERATING"
	StateWriting      RunState = "WRITING"
	StateRecording    RunState = "RECORDING"
	StateNotifying    RunState = "NOTIFYING"
	StateDone         RunState = "DONE"
	StateFailed       RunState = "FAILED"
)

// Terminal reports whether the state ends a subject's run.
func (s RunState) Terminal() bool {
	return s == StateSkipped || s == StateDone || s == StateFailed
}

// SubjectOutcome is the terminal result for one subject within a run.
type SubjectOutcome struct {
	// Subject is the topic processed.
	Subject string `json:"subject" yaml:"subject"`

	// State is the terminal state: SKIPPED, DONE, or FAILED.
	State RunState `json:"state" yaml:"state"`

	// FailedAt is the state the subject was in when it failed, empty otherwise.
	FailedAt RunState `json:"failed_at,omitempty" yaml:"failed_at,omitempty"`

	// Reason explains a FAILED state.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// ArtifactPath is the written report location for DONE subjects.
	ArtifactPath string `json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`

	// SourceCount is how many search results informed the report.
	SourceCount int `json:"source_count,omitempty" yaml:"source_count,omitempty"`

	// Notified reports whether the webhook POST succeeded.
	Notified bool `json:"notified,omitempty" yaml:"notified,omitempty"`

	// SearchDegraded marks subjects whose report was generated without
	// fresh sources because the provider was unavailable.
	SearchDegraded bool `json:"search_degraded,omitempty" yaml:"search_degraded,omitempty"`
}

// RunSummary aggregates per-subject outcomes for one pipeline invocation.
type RunSummary struct {
	// Date is the run date in YYYY-MM-DD form.
	Date string `json:"date" yaml:"date"`

	// Outcomes holds one entry per configured subject, in processing order.
	Outcomes []SubjectOutcome `json:"outcomes" yaml:"outcomes"`
}

// Done returns the number of subjects that reached DONE.
func (s RunSummary) Done() int { return s.count(StateDone) }

// Skipped returns the number of subjects skipped as already recorded.
func (s RunSummary) Skipped() int { return s.count(StateSkipped) }

// Failed returns the number of subjects that ended in FAILED.
func (s RunSummary) Failed() int { return s.count(StateFailed) }

func (s RunSummary) count(state RunState) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}
