package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aer205/gh-issue-stats/internal/domain"
)

func ts(day int) time.Time {
	return time.Date(2024, 1, day, 12, 0, 0, 0, time.UTC)
}

// TestClassifier_Classify covers the priority chains over fixture event streams.
func TestClassifier_Classify(t *testing.T) {
	testCases := []struct {
		name           string
		events         []domain.TimelineEvent
		isPull         bool
		expectedStart  *Selection
		expectedFinish *Selection
		expectedSquash bool
		expectedSkip   int
	}{
		{
			name: "label start and plain close",
			events: []domain.TimelineEvent{
				{Type: "labeled", ID: "10", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Label: "in-progress"},
				{Type: "closed", ID: "20", CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
			},
			expectedStart:  &Selection{Event: "labeled", ID: "10", At: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
			expectedFinish: &Selection{Event: "closed", ID: "20", At: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "work signal outranks earlier in-progress label",
			events: []domain.TimelineEvent{
				{Type: "labeled", ID: "1", CreatedAt: ts(2), Label: "wip"},
				{Type: "assigned", ID: "2", CreatedAt: ts(5)},
				{Type: "closed", ID: "3", CreatedAt: ts(9)},
			},
			expectedStart:  &Selection{Event: "assigned", ID: "2", At: ts(5)},
			expectedFinish: &Selection{Event: "closed", ID: "3", At: ts(9)},
		},
		{
			name: "squash merge wins over close for pull requests",
			events: []domain.TimelineEvent{
				{Type: "committed", ID: "abc123", CreatedAt: ts(2)},
				{Type: "merged", ID: "50", CreatedAt: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), Squash: true},
				{Type: "closed", ID: "51", CreatedAt: time.Date(2024, 2, 5, 0, 0, 1, 0, time.UTC)},
			},
			isPull:         true,
			expectedStart:  &Selection{Event: "committed", ID: "abc123", At: ts(2)},
			expectedFinish: &Selection{Event: "merged", ID: "50", At: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
			expectedSquash: true,
		},
		{
			name: "merged event on a plain issue does not count as terminal",
			events: []domain.TimelineEvent{
				{Type: "merged", ID: "5", CreatedAt: ts(4)},
				{Type: "closed", ID: "6", CreatedAt: ts(6)},
			},
			expectedFinish: &Selection{Event: "closed", ID: "6", At: ts(6)},
		},
		{
			name: "no qualifying start signal leaves start absent",
			events: []domain.TimelineEvent{
				{Type: "commented", ID: "1", CreatedAt: ts(2)},
				{Type: "labeled", ID: "2", CreatedAt: ts(3), Label: "bug"},
				{Type: "closed", ID: "3", CreatedAt: ts(8)},
			},
			expectedFinish: &Selection{Event: "closed", ID: "3", At: ts(8)},
		},
		{
			name: "earliest wins within the start tier",
			events: []domain.TimelineEvent{
				{Type: "labeled", ID: "9", CreatedAt: ts(6), Label: "wip"},
				{Type: "labeled", ID: "4", CreatedAt: ts(3), Label: "in progress"},
				{Type: "closed", ID: "12", CreatedAt: ts(9)},
			},
			expectedStart:  &Selection{Event: "labeled", ID: "4", At: ts(3)},
			expectedFinish: &Selection{Event: "closed", ID: "12", At: ts(9)},
		},
		{
			name: "latest wins within the finish tier",
			events: []domain.TimelineEvent{
				{Type: "closed", ID: "1", CreatedAt: ts(4)},
				{Type: "reopened", ID: "2", CreatedAt: ts(5)},
				{Type: "closed", ID: "3", CreatedAt: ts(7)},
			},
			expectedFinish: &Selection{Event: "closed", ID: "3", At: ts(7)},
		},
		{
			name: "equal timestamps resolve to the lower event id",
			events: []domain.TimelineEvent{
				{Type: "assigned", ID: "31", CreatedAt: ts(5)},
				{Type: "assigned", ID: "29", CreatedAt: ts(5)},
				{Type: "closed", ID: "40", CreatedAt: ts(8)},
			},
			expectedStart:  &Selection{Event: "assigned", ID: "29", At: ts(5)},
			expectedFinish: &Selection{Event: "closed", ID: "40", At: ts(8)},
		},
		{
			name: "malformed events are skipped, not fatal",
			events: []domain.TimelineEvent{
				{Type: "assigned", ID: "1"}, // no timestamp
				{Type: "", ID: "2", CreatedAt: ts(3)},
				{Type: "labeled", ID: "3", CreatedAt: ts(4), Label: "doing"},
				{Type: "closed", ID: "4", CreatedAt: ts(6)},
			},
			expectedStart:  &Selection{Event: "labeled", ID: "3", At: ts(4)},
			expectedFinish: &Selection{Event: "closed", ID: "4", At: ts(6)},
			expectedSkip:   2,
		},
		{
			name:   "empty timeline yields nothing",
			events: nil,
		},
	}

	classifier := NewClassifier()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := classifier.Classify(tc.events, tc.isPull)

			assert.Equal(t, tc.expectedStart, result.Start)
			assert.Equal(t, tc.expectedFinish, result.Finish)
			assert.Equal(t, tc.expectedSquash, result.Squash)
			assert.Equal(t, tc.expectedSkip, result.Skipped)
		})
	}
}

// TestClassifier_Deterministic verifies that repeated runs over the same
// stream give identical selections.
func TestClassifier_Deterministic(t *testing.T) {
	events := []domain.TimelineEvent{
		{Type: "labeled", ID: "2", CreatedAt: ts(2), Label: "wip"},
		{Type: "cross-referenced", ID: "3", CreatedAt: ts(3)},
		{Type: "assigned", ID: "4", CreatedAt: ts(3)},
		{Type: "closed", ID: "5", CreatedAt: ts(9)},
	}
	classifier := NewClassifier()

	first := classifier.Classify(events, false)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, classifier.Classify(events, false))
	}
}

// TestClassifier_CustomVocabulary verifies that vocabularies can be swapped
// without touching the selection logic.
func TestClassifier_CustomVocabulary(t *testing.T) {
	classifier := NewClassifier(WithInProgressLabels("started"))
	events := []domain.TimelineEvent{
		{Type: "labeled", ID: "1", CreatedAt: ts(2), Label: "WIP"},
		{Type: "labeled", ID: "2", CreatedAt: ts(4), Label: "Started"},
		{Type: "closed", ID: "3", CreatedAt: ts(8)},
	}

	result := classifier.Classify(events, false)

	require.NotNil(t, result.Start)
	assert.Equal(t, "2", result.Start.ID, "only the custom label should match, case-insensitively")
}

// TestClassifier_StartAfterFinishAllowed documents that a noisy history may
// select a start that postdates the finish; the classifier does not reorder.
func TestClassifier_StartAfterFinishAllowed(t *testing.T) {
	events := []domain.TimelineEvent{
		{Type: "closed", ID: "1", CreatedAt: ts(4)},
		{Type: "assigned", ID: "2", CreatedAt: ts(6)},
	}

	result := NewClassifier().Classify(events, false)

	require.NotNil(t, result.Start)
	require.NotNil(t, result.Finish)
	assert.True(t, result.Start.At.After(result.Finish.At))
}
