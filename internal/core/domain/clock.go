package domain

import "time"

// Timestamp normalizes t to UTC at millisecond precision, the resolution a
// BSON datetime keeps. Values stored through it read back unchanged.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Now is the current time as a Timestamp.
func Now() time.Time {
	return Timestamp(time.Now())
}
