package timeseries

import "time"

// Seconds converts a numeric timestamp recorded in seconds to a session
// offset.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Milliseconds converts a numeric timestamp recorded in milliseconds to a
// session offset.
func Milliseconds(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Microseconds converts a numeric timestamp recorded in microseconds to a
// session offset.
func Microseconds(us float64) time.Duration {
	return time.Duration(us * float64(time.Microsecond))
}
