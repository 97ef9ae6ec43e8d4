package scheduler

import "testing"

func sampleRooms() []Room {
	return []Room{
		{ID: "room-1", Name: "회의실 A", Floor: 1, Capacity: 4, Equipment: NewEquipmentSet(EquipmentTV, EquipmentWhiteboard)},
		{ID: "room-2", Name: "회의실 B", Floor: 1, Capacity: 8, Equipment: NewEquipmentSet(EquipmentTV, EquipmentWhiteboard, EquipmentVideo)},
		{ID: "room-3", Name: "대회의실", Floor: 2, Capacity: 20, Equipment: NewEquipmentSet(AllEquipment()...)},
		{ID: "room-4", Name: "소회의실", Floor: 2, Capacity: 3, Equipment: NewEquipmentSet(EquipmentWhiteboard)},
		{ID: "room-5", Name: "미팅룸 C", Floor: 3, Capacity: 6, Equipment: NewEquipmentSet(EquipmentTV, EquipmentVideo)},
		{ID: "room-6", Name: "세미나실", Floor: 3, Capacity: 15, Equipment: NewEquipmentSet(AllEquipment()...)},
	}
}

func intPtr(v int) *int { return &v }

func TestIsRoomAvailable(t *testing.T) {
	room := sampleRooms()[0]
	booked := []Reservation{{ID: "r1", RoomID: "room-1", Date: "2024-01-02", Start: "09:00", End: "10:00"}}

	base := Criteria{Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 2}

	cases := []struct {
		name   string
		mutate func(c *Criteria)
		want   bool
	}{
		{name: "all constraints satisfied", mutate: func(c *Criteria) {}, want: true},
		{name: "capacity exceeded", mutate: func(c *Criteria) { c.Attendees = 5 }, want: false},
		{name: "capacity exact", mutate: func(c *Criteria) { c.Attendees = 4 }, want: true},
		{name: "missing equipment", mutate: func(c *Criteria) { c.Equipment = NewEquipmentSet(EquipmentVideo) }, want: false},
		{name: "equipment subset", mutate: func(c *Criteria) { c.Equipment = NewEquipmentSet(EquipmentTV) }, want: true},
		{name: "other floor", mutate: func(c *Criteria) { c.PreferredFloor = intPtr(2) }, want: false},
		{name: "same floor", mutate: func(c *Criteria) { c.PreferredFloor = intPtr(1) }, want: true},
		{name: "overlapping reservation", mutate: func(c *Criteria) { c.Start, c.End = "09:30", "10:30" }, want: false},
		{name: "reservation on another date", mutate: func(c *Criteria) { c.Date, c.Start, c.End = "2024-01-03", "09:30", "10:30" }, want: true},
		{name: "malformed window", mutate: func(c *Criteria) { c.Start = "nine" }, want: false},
		{name: "empty window", mutate: func(c *Criteria) { c.End = c.Start }, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			tc.mutate(&c)
			if got := IsRoomAvailable(room, booked, c); got != tc.want {
				t.Fatalf("IsRoomAvailable() = %v, want %v (criteria %+v)", got, tc.want, c)
			}
		})
	}
}

func TestIsRoomAvailableCapacityScenario(t *testing.T) {
	room := Room{ID: "small", Capacity: 4, Equipment: NewEquipmentSet(AllEquipment()...)}
	for _, window := range [][2]string{{"09:00", "10:00"}, {"13:00", "18:00"}} {
		c := Criteria{Date: "2024-01-02", Start: window[0], End: window[1], Attendees: 5}
		if IsRoomAvailable(room, nil, c) {
			t.Fatalf("room with capacity 4 admitted 5 attendees for %v", window)
		}
	}
}

func TestIsRoomAvailableMonotonic(t *testing.T) {
	rooms := sampleRooms()
	reservations := []Reservation{
		{RoomID: "room-2", Date: "2024-01-02", Start: "14:00", End: "16:00"},
		{RoomID: "room-3", Date: "2024-01-02", Start: "10:00", End: "12:00"},
	}
	full := NewEquipmentSet(AllEquipment()...)

	for _, room := range rooms {
		for attendees := 1; attendees <= 21; attendees++ {
			c := Criteria{Date: "2024-01-02", Start: "11:00", End: "12:00", Attendees: attendees, Equipment: full}
			if !IsRoomAvailable(room, reservations, c) {
				continue
			}
			fewer := c
			fewer.Attendees = attendees - 1
			if attendees > 1 && !IsRoomAvailable(room, reservations, fewer) {
				t.Fatalf("lowering attendees made %s unavailable", room.ID)
			}
			for _, drop := range AllEquipment() {
				smaller := c
				smaller.Equipment = NewEquipmentSet()
				for e := range full {
					if e != drop {
						smaller.Equipment[e] = struct{}{}
					}
				}
				if !IsRoomAvailable(room, reservations, smaller) {
					t.Fatalf("shrinking equipment made %s unavailable", room.ID)
				}
			}
		}
	}
}

func TestAvailableRoomsPreservesOrder(t *testing.T) {
	c := Criteria{Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 6, Equipment: NewEquipmentSet(EquipmentVideo)}
	got := AvailableRooms(sampleRooms(), nil, c)

	want := []string{"room-2", "room-3", "room-5", "room-6"}
	if len(got) != len(want) {
		t.Fatalf("AvailableRooms returned %d rooms, want %d", len(got), len(want))
	}
	for i, room := range got {
		if room.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, room.ID, want[i])
		}
	}
}
