// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// IssueRecord holds the classified lifecycle of a single closed issue or
// pull request. It is the core domain entity of this application.
//
// The start and finish triples (event/id/timestamp) are each either fully
// present or fully absent: an issue with no detectable start-of-work signal
// carries nil for all three start fields, and likewise for finish.
type IssueRecord struct {
	Number    int        `json:"number"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	StartEvent *string    `json:"start_event,omitempty"`
	StartID    *string    `json:"start_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`

	FinishEvent *string    `json:"finish_event,omitempty"`
	FinishID    *string    `json:"finish_id,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`

	StateReason *string `json:"state_reason,omitempty"`
	IsPull      bool    `json:"is_pull"`
	IsSquash    bool    `json:"is_squash"`
}

// RepoStats groups the issue records extracted from one repository.
// Issues keep the order in which the fetcher returned them.
type RepoStats struct {
	Owner  string        `json:"owner"`
	Name   string        `json:"name"`
	URL    string        `json:"url"`
	Issues []IssueRecord `json:"issues"`
}

// RepositoryStats is the full result of an extraction run, one entry per
// repository, in input order. The extractor is its sole writer; persistence
// and export treat it as read-only.
type RepositoryStats []RepoStats

// SampledRepo is one repository chosen by the activity sampler, tagged with
// its commit count over the trailing window.
type SampledRepo struct {
	URL     string `json:"url"`
	Owner   string `json:"owner"`
	Name    string `json:"name"`
	Commits int    `json:"commits"`
}

// SampleSet is the sampler output, ranked by descending commit count.
// It is consumed immediately by extraction and is not persisted.
type SampleSet []SampledRepo

// TimelineEvent is one entry of an issue's ordered event stream as exposed
// by the gateway. The classifier reads these and never mutates them.
//
// ID is a string: ordinary timeline events carry their numeric id in decimal,
// commit-backed events carry the commit SHA (commits have no timeline id
// upstream).
type TimelineEvent struct {
	Type      string
	ID        string
	CreatedAt time.Time
	Label     string
	CommitSHA string
	Actor     string
	// Squash is only meaningful on "merged" events of pull requests.
	Squash bool
}

// IssueMeta is the per-issue metadata the gateway returns from listing,
// before any timeline has been fetched.
type IssueMeta struct {
	Number      int
	CreatedAt   time.Time
	ClosedAt    *time.Time
	StateReason string
	IsPull      bool
}
