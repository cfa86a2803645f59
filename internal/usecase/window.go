package usecase

import "time"

// Default maximum ages for the extraction window: issues must have been
// created within the last 1.5 years and closed within the last year.
const (
	DefaultMaxCreatedAge = 548 * 24 * time.Hour
	DefaultMaxClosedAge  = 365 * 24 * time.Hour
)

// Window is the pure accept/reject predicate applied to an issue's lifetime
// bounds before any classification work is spent on it.
type Window struct {
	MaxCreatedAge time.Duration
	MaxClosedAge  time.Duration
}

// DefaultWindow returns the window with the default maximum ages.
func DefaultWindow() Window {
	return Window{MaxCreatedAge: DefaultMaxCreatedAge, MaxClosedAge: DefaultMaxClosedAge}
}

// Accept reports whether an issue falls inside the window relative to now.
// Open issues (nil closedAt) are always rejected.
func (w Window) Accept(now, createdAt time.Time, closedAt *time.Time) bool {
	if closedAt == nil {
		return false
	}
	if createdAt.Before(now.Add(-w.MaxCreatedAge)) {
		return false
	}
	return !(*closedAt).Before(now.Add(-w.MaxClosedAge))
}
