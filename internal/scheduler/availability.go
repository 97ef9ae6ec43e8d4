package scheduler

// IsRoomAvailable reports whether room can host a meeting matching c.
// It checks capacity, the equipment subset, the preferred floor and
// that no reservation of the room on c.Date overlaps the requested interval.
// A malformed or empty requested interval is never available.
func IsRoomAvailable(room Room, reservations []Reservation, c Criteria) bool {
	if room.Capacity < c.Attendees {
		return false
	}
	if !room.Equipment.Contains(c.Equipment) {
		return false
	}
	if c.PreferredFloor != nil && room.Floor != *c.PreferredFloor {
		return false
	}
	window, err := ParseInterval(c.Start, c.End)
	if err != nil || window.Duration() <= 0 {
		return false
	}
	return len(ConflictingReservations(reservations, room.ID, c.Date, window)) == 0
}

// AvailableRooms filters rooms down to those that satisfy c, preserving catalog order.
func AvailableRooms(rooms []Room, reservations []Reservation, c Criteria) []Room {
	var out []Room
	for _, room := range rooms {
		if IsRoomAvailable(room, reservations, c) {
			out = append(out, room)
		}
	}
	return out
}
