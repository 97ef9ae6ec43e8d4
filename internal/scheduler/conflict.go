package scheduler

// Interval is a half-open [Start, End) range in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// ParseInterval converts a pair of wall-clock strings into an Interval.
func ParseInterval(start, end string) (Interval, error) {
	s, err := TimeToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := TimeToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// Duration returns the interval length in minutes.
func (i Interval) Duration() int {
	return i.End - i.Start
}

// Overlaps reports whether i and other share at least one minute.
func (i Interval) Overlaps(other Interval) bool {
	return HasTimeConflict(i.Start, i.End, other.Start, other.End)
}

// HasTimeConflict reports whether [existingStart, existingEnd) and [newStart, newEnd) overlap.
// Adjacent intervals do not conflict.
func HasTimeConflict(existingStart, existingEnd, newStart, newEnd int) bool {
	return newStart < existingEnd && newEnd > existingStart
}

// ConflictingReservations returns the reservations for roomID on date that overlap window.
// A stored reservation whose times cannot be parsed is treated as conflicting.
func ConflictingReservations(reservations []Reservation, roomID, date string, window Interval) []Reservation {
	var conflicts []Reservation
	for _, r := range reservations {
		if r.RoomID != roomID || r.Date != date {
			continue
		}
		existing, err := ParseInterval(r.Start, r.End)
		if err != nil || existing.Overlaps(window) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}
