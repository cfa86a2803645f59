// Package usecase contains the business logic of the application.
package usecase

import (
	"strings"
	"time"

	"github.com/aer205/gh-issue-stats/internal/domain"
)

// Default event vocabularies. Start signals mark code or ownership being
// attached to an issue; finish signals are the terminal timeline events that
// are stronger evidence of completion than the plain close.
var (
	defaultStartSignals = []string{"connected", "assigned", "committed", "cross-referenced"}

	defaultFinishSignals = []string{"merged", "deployed", "marked_as_duplicate", "converted_to_discussion", "convert_to_draft"}

	defaultInProgressLabels = []string{"in progress", "in-progress", "in_progress", "wip", "doing"}
)

// Selection identifies the single timeline event chosen for one side of the
// work interval.
type Selection struct {
	Event string
	ID    string
	At    time.Time
}

// Classification is the classifier output for one issue.
type Classification struct {
	Start  *Selection
	Finish *Selection
	// Squash is true when the finish event is a squash merge.
	Squash bool
	// Skipped counts malformed timeline entries (no type or no timestamp)
	// that were dropped before rule evaluation.
	Skipped int
}

// rule is one tier of the priority chain: a name for the tier and a
// predicate over a single event. Tiers are evaluated in order and the first
// tier with any matching event decides the selection.
type rule struct {
	name  string
	match func(domain.TimelineEvent) bool
}

// Classifier selects at most one start-of-work and one end-of-work event
// from an issue's timeline. It holds only immutable vocabulary sets, so a
// single instance is safe for concurrent use.
type Classifier struct {
	startSignals     map[string]struct{}
	finishSignals    map[string]struct{}
	inProgressLabels map[string]struct{}
}

// ClassifierOption customizes the classifier vocabularies.
type ClassifierOption func(*Classifier)

// WithInProgressLabels replaces the label vocabulary that counts as a
// start-of-work signal. Matching is case-insensitive.
func WithInProgressLabels(labels ...string) ClassifierOption {
	return func(c *Classifier) {
		c.inProgressLabels = toSet(labels)
	}
}

// WithStartSignals replaces the event-type vocabulary of the first start tier.
func WithStartSignals(types ...string) ClassifierOption {
	return func(c *Classifier) {
		c.startSignals = toSet(types)
	}
}

// WithFinishSignals replaces the event-type vocabulary of the first finish tier.
func WithFinishSignals(types ...string) ClassifierOption {
	return func(c *Classifier) {
		c.finishSignals = toSet(types)
	}
}

// NewClassifier creates a classifier with the default vocabularies.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		startSignals:     toSet(defaultStartSignals),
		finishSignals:    toSet(defaultFinishSignals),
		inProgressLabels: toSet(defaultInProgressLabels),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the priority chains over the issue's ordered event stream.
//
// Start tiers: work-signal event types, then in-progress labels. Within a
// tier the earliest event wins, to include borderline work time. Finish
// tiers: terminal events (merge and friends), then the close event itself;
// the latest event wins, for the same reason. Equal timestamps within a tier
// resolve to the lexicographically lower event id.
//
// The stream is never mutated. Malformed entries are skipped and counted,
// never fatal. Repeated runs over the same stream give the same result.
func (c *Classifier) Classify(events []domain.TimelineEvent, isPull bool) Classification {
	valid := make([]domain.TimelineEvent, 0, len(events))
	skipped := 0
	for _, ev := range events {
		if ev.Type == "" || ev.ID == "" || ev.CreatedAt.IsZero() {
			skipped++
			continue
		}
		valid = append(valid, ev)
	}

	startRules := []rule{
		{name: "work-signal", match: func(ev domain.TimelineEvent) bool {
			_, ok := c.startSignals[ev.Type]
			return ok
		}},
		{name: "in-progress-label", match: func(ev domain.TimelineEvent) bool {
			if ev.Type != "labeled" {
				return false
			}
			_, ok := c.inProgressLabels[strings.ToLower(ev.Label)]
			return ok
		}},
	}
	finishRules := []rule{
		{name: "terminal", match: func(ev domain.TimelineEvent) bool {
			if ev.Type == "merged" && !isPull {
				return false
			}
			_, ok := c.finishSignals[ev.Type]
			return ok
		}},
		{name: "closed", match: func(ev domain.TimelineEvent) bool {
			return ev.Type == "closed"
		}},
	}

	result := Classification{Skipped: skipped}
	result.Start = firstMatch(startRules, valid, pickEarliest)
	if finish := firstMatch(finishRules, valid, pickLatest); finish != nil {
		result.Finish = finish
		result.Squash = finishWasSquash(valid, finish)
	}
	return result
}

// firstMatch evaluates the tiers in order and resolves the first tier with
// any matching event through the given picker.
func firstMatch(rules []rule, events []domain.TimelineEvent, pick func(a, b domain.TimelineEvent) bool) *Selection {
	for _, r := range rules {
		var best *domain.TimelineEvent
		for i := range events {
			if !r.match(events[i]) {
				continue
			}
			if best == nil || pick(events[i], *best) {
				best = &events[i]
			}
		}
		if best != nil {
			return &Selection{Event: best.Type, ID: best.ID, At: best.CreatedAt}
		}
	}
	return nil
}

// pickEarliest reports whether a should replace b as the start selection.
func pickEarliest(a, b domain.TimelineEvent) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// pickLatest reports whether a should replace b as the finish selection.
func pickLatest(a, b domain.TimelineEvent) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func finishWasSquash(events []domain.TimelineEvent, finish *Selection) bool {
	if finish.Event != "merged" {
		return false
	}
	for _, ev := range events {
		if ev.Type == "merged" && ev.ID == finish.ID {
			return ev.Squash
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
