package recurrence

import (
	"time"

	"github.com/example/course-admin/internal/timeutil"
)

// Engine expands weekly recurrence windows into concrete calendar dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes results to the provided location.
// If loc is nil, Asia/Tokyo (JST) is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}
	return &Engine{location: loc}
}

// Occurrences returns every calendar date within [start, end] whose weekday
// equals day, ordered ascending and exactly seven days apart.
//
// The engine enforces the following semantics:
//   - start is truncated to 00:00:00 and end expanded to the last instant of its
//     calendar day before comparison, making the range inclusive on both sides.
//   - Each returned date is a midnight instant in the engine's location.
//   - The result is a finite materialized slice; callers batch-insert from it.
//
// An empty slice is returned when no date in range matches, including when end
// precedes start.
func (e *Engine) Occurrences(start, end time.Time, day time.Weekday) []time.Time {
	loc := e.location
	if loc == nil {
		loc = timeutil.DefaultLocation()
	}

	lower := timeutil.Midnight(start, loc)
	upper := timeutil.EndOfDay(end, loc)

	dates := make([]time.Time, 0)
	if upper.Before(lower) {
		return dates
	}

	offset := (int(day) - int(lower.Weekday()) + 7) % 7
	current := lower.AddDate(0, 0, offset)

	for !current.After(upper) {
		dates = append(dates, current)
		current = current.AddDate(0, 0, 7)
	}

	return dates
}

// Occurrences expands the range using a one-off engine in the default location.
func Occurrences(start, end time.Time, day time.Weekday) []time.Time {
	return NewEngine(nil).Occurrences(start, end, day)
}
