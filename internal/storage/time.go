package storage

import "time"

// TimeFormat is the layout of created_at and updated_at. It sorts
// lexicographically in chronological order.
const TimeFormat = "2006-01-02T15:04:05.000000"

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// FormatTime formats t in UTC using TimeFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}
