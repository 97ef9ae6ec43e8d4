package scheduler

// Room is a bookable meeting room from the catalog.
type Room struct {
	ID        string
	Name      string
	Floor     int
	Capacity  int
	Equipment EquipmentSet
}

// Reservation is a persisted booking of a room for a wall-clock interval on a date.
type Reservation struct {
	ID        string
	RoomID    string
	Date      string
	Start     string
	End       string
	Attendees int
	Equipment EquipmentSet
	UserID    string
}

// Criteria is the set of hard constraints a room must satisfy for a booking request.
type Criteria struct {
	Date           string
	Start          string
	End            string
	Attendees      int
	Equipment      EquipmentSet
	PreferredFloor *int
}

// Duration returns the requested interval length in minutes.
func (c Criteria) Duration() (int, error) {
	start, err := TimeToMinutes(c.Start)
	if err != nil {
		return 0, err
	}
	end, err := TimeToMinutes(c.End)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// AlternativeSlot is a same-room time window proposed after a conflict.
type AlternativeSlot struct {
	Start string
	End   string
}
