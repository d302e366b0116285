// Package timeutil centralizes the date and clock normalization rules shared by
// the schedule, session and attendance components. Every "HH:MM" parse and every
// midnight truncation in the module goes through this package so that lookups
// keyed by calendar date agree on the same instant.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the canonical calendar-date representation used in storage.
const DateLayout = "2006-01-02"

var jst = time.FixedZone("JST", 9*60*60)

// DefaultLocation returns the location used when callers do not supply one.
func DefaultLocation() *time.Location {
	return jst
}

// ErrInvalidClock indicates a time-of-day string does not match "HH:MM".
var ErrInvalidClock = errors.New("timeutil: time of day must match HH:MM")

var clockPattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses a strict 24h "HH:MM" string.
func ParseClock(value string) (Clock, error) {
	if !clockPattern.MatchString(value) {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	var c Clock
	if _, err := fmt.Sscanf(value, "%02d:%02d", &c.Hour, &c.Minute); err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return c, nil
}

// Minutes returns the clock as minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// String renders the clock back to "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On combines the clock with the calendar date of the supplied time in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = jst
	}
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, loc)
}

// Midnight truncates t to 00:00:00 of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = jst
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay expands t to the last representable instant of its calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return Midnight(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// SameDate reports whether a and b fall on the same calendar day in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	return Midnight(a, loc).Equal(Midnight(b, loc))
}

// FormatDate renders the calendar date of t in loc using DateLayout.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = jst
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a DateLayout string as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = jst
	}
	return time.ParseInLocation(DateLayout, value, loc)
}
