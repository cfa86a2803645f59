package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindow_Accept(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	window := DefaultWindow()

	closed := func(t time.Time) *time.Time { return &t }

	testCases := []struct {
		name      string
		createdAt time.Time
		closedAt  *time.Time
		expected  bool
	}{
		{
			name:      "recent issue inside both bounds",
			createdAt: now.AddDate(0, -6, 0),
			closedAt:  closed(now.AddDate(0, -1, 0)),
			expected:  true,
		},
		{
			name:      "open issue is always rejected",
			createdAt: now.AddDate(0, -1, 0),
			closedAt:  nil,
			expected:  false,
		},
		{
			name:      "created too long ago",
			createdAt: now.Add(-DefaultMaxCreatedAge - time.Hour),
			closedAt:  closed(now.AddDate(0, -1, 0)),
			expected:  false,
		},
		{
			name:      "closed too long ago",
			createdAt: now.AddDate(0, -14, 0),
			closedAt:  closed(now.Add(-DefaultMaxClosedAge - time.Hour)),
			expected:  false,
		},
		{
			name:      "created exactly at the creation bound",
			createdAt: now.Add(-DefaultMaxCreatedAge),
			closedAt:  closed(now.AddDate(0, -1, 0)),
			expected:  true,
		},
		{
			name:      "closed exactly at the closure bound",
			createdAt: now.AddDate(0, -6, 0),
			closedAt:  closed(now.Add(-DefaultMaxClosedAge)),
			expected:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, window.Accept(now, tc.createdAt, tc.closedAt))
		})
	}
}
