package ports

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reports local wall-clock time; "today" and quiet hours are
// local notions.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
