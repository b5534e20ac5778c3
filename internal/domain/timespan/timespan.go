// Package timespan renders race durations in the timespan notation the
// results consumer parses.
package timespan

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned by Parse for text Format could not have produced.
var ErrMalformed = errors.New("malformed timespan")

// Millisecond multiples used when splitting a duration.
const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute

	microsPerMilli = 1000
)

// Format converts a duration in milliseconds to "h:m:s.f", where f is the
// millisecond remainder scaled to microseconds. No component is zero-padded,
// so 100000 renders as "0:1:40.0" and 123456 as "0:2:3.456000".
//
// ms must not be negative; callers filter sentinel times first.
func Format(ms int64) string {
	hours := ms / msPerHour
	minutes := (ms - hours*msPerHour) / msPerMinute
	seconds := (ms - hours*msPerHour - minutes*msPerMinute) / msPerSecond
	millis := ms - hours*msPerHour - minutes*msPerMinute - seconds*msPerSecond

	return fmt.Sprintf("%d:%d:%d.%d", hours, minutes, seconds, millis*microsPerMilli)
}

// Parse is the inverse of Format.
func Parse(s string) (int64, error) {
	var hours, minutes, seconds, micros int64
	if _, err := fmt.Sscanf(s, "%d:%d:%d.%d", &hours, &minutes, &seconds, &micros); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if hours < 0 || minutes < 0 || minutes >= 60 || seconds < 0 || seconds >= 60 ||
		micros < 0 || micros%microsPerMilli != 0 || micros >= msPerSecond*microsPerMilli {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	// Trailing text and padded components do not survive the round trip.
	ms := hours*msPerHour + minutes*msPerMinute + seconds*msPerSecond + micros/microsPerMilli
	if Format(ms) != s {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return ms, nil
}
