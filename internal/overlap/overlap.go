package overlap

import "time"

// Item carries the recurrence attributes relevant to overlap detection.
type Item struct {
	ID            string
	DayOfWeek     time.Weekday
	StartMinutes  int
	EndMinutes    int
	ValidityStart time.Time
	ValidityEnd   time.Time
}

// Warning details an overlapping recurrence pair that callers can present to users.
// Overlaps are advisory: two weekly rules meeting on the same weekday with
// intersecting time windows and validity ranges will materialize double-booked
// sessions, but the store accepts them.
type Warning struct {
	ItemID     string
	WithItemID string
	DayOfWeek  time.Weekday
}

// Detect identifies pairwise overlaps within a replacement schedule set.
func Detect(items []Item) []Warning {
	if len(items) <= 1 {
		return nil
	}

	warnings := make([]Warning, 0)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if overlaps(items[i], items[j]) {
				warnings = append(warnings, Warning{
					ItemID:     items[i].ID,
					WithItemID: items[j].ID,
					DayOfWeek:  items[i].DayOfWeek,
				})
			}
		}
	}

	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

func overlaps(a, b Item) bool {
	if a.DayOfWeek != b.DayOfWeek {
		return false
	}
	if a.EndMinutes <= b.StartMinutes || b.EndMinutes <= a.StartMinutes {
		return false
	}
	// Validity ranges are inclusive on both ends.
	if a.ValidityEnd.Before(b.ValidityStart) || b.ValidityEnd.Before(a.ValidityStart) {
		return false
	}
	return true
}
