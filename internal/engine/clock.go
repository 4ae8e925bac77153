package engine

import "time"

// Clock abstracts time.Now() so the month window can be tested for any date.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time. The issue-day rule uses the local
// calendar date.
func (RealClock) Now() time.Time {
	return time.Now()
}
