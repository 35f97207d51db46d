package availability

import (
	"time"
)

// Slot is a one-hour candidate session for a mentor.
type Slot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

// Interval is a half-open busy range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) overlaps(start, end time.Time) bool {
	return iv.Start.Before(end) && iv.End.After(start)
}

// BuildSlots lays out hourly slots on day between startHour and endHour in
// day's location, and marks the ones touched by a busy interval as unavailable.
func BuildSlots(mentorID string, day time.Time, startHour, endHour int, busy []Interval) []Slot {
	y, m, d := day.Date()
	loc := day.Location()

	slots := make([]Slot, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		start := time.Date(y, m, d, h, 0, 0, 0, loc).UTC()
		end := start.Add(time.Hour)

		available := true
		for _, iv := range busy {
			if iv.overlaps(start, end) {
				available = false
				break
			}
		}

		slots = append(slots, Slot{
			ID:        mentorID + "-" + start.Format(time.RFC3339),
			StartTime: start,
			EndTime:   end,
			Available: available,
		})
	}
	return slots
}
