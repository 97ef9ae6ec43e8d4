package scheduler

import "sort"

const (
	// DefaultMaxSlots caps the number of alternative time slots proposed.
	DefaultMaxSlots = 3
	// DefaultMaxRooms caps the number of alternative rooms proposed.
	DefaultMaxRooms = 3
)

// FindAlternativeTimeSlots sweeps the free gaps of roomID on date inside the
// bookable window and proposes up to maxSlots slots of durationMinutes each,
// in chronological order. A non-positive maxSlots uses DefaultMaxSlots.
// A non-positive duration yields no slots.
func FindAlternativeTimeSlots(roomID string, reservations []Reservation, date string, durationMinutes, maxSlots int) []AlternativeSlot {
	if durationMinutes <= 0 {
		return nil
	}
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}

	busy := make([]Interval, 0, len(reservations))
	for _, r := range reservations {
		if r.RoomID != roomID || r.Date != date {
			continue
		}
		iv, err := ParseInterval(r.Start, r.End)
		if err != nil {
			continue
		}
		busy = append(busy, iv)
	}
	sort.SliceStable(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })

	var slots []AlternativeSlot
	emit := func(start int) {
		slots = append(slots, AlternativeSlot{
			Start: MinutesToTime(start),
			End:   MinutesToTime(start + durationMinutes),
		})
	}

	current := DayStart
	for _, iv := range busy {
		if len(slots) >= maxSlots {
			break
		}
		if iv.Start-current >= durationMinutes && current+durationMinutes <= DayEnd {
			emit(current)
		}
		if iv.End > current {
			current = iv.End
		}
	}

	if len(slots) < maxSlots && current+durationMinutes <= DayEnd {
		emit(current)
	}
	return slots
}

// FindAlternativeRooms returns up to maxRooms rooms other than excludeRoomID
// that satisfy c for the same window, in catalog order.
// A non-positive maxRooms uses DefaultMaxRooms.
func FindAlternativeRooms(rooms []Room, reservations []Reservation, excludeRoomID string, c Criteria, maxRooms int) []Room {
	if maxRooms <= 0 {
		maxRooms = DefaultMaxRooms
	}
	var out []Room
	for _, room := range rooms {
		if room.ID == excludeRoomID {
			continue
		}
		if !IsRoomAvailable(room, reservations, c) {
			continue
		}
		out = append(out, room)
		if len(out) == maxRooms {
			break
		}
	}
	return out
}
