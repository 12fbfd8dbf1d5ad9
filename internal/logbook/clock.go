package logbook

import "time"

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Timestamp renders a time the way the store records it: UTC, second
// precision, RFC 3339.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
