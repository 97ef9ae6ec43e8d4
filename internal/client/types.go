package client

import "github.com/example/room-booking/internal/scheduler"

// Room is a catalog entry as returned by the API.
type Room struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Floor     int      `json:"floor"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
}

func (r Room) toScheduler() scheduler.Room {
	return scheduler.Room{
		ID:        r.ID,
		Name:      r.Name,
		Floor:     r.Floor,
		Capacity:  r.Capacity,
		Equipment: equipmentSet(r.Equipment),
	}
}

// Reservation is a committed booking as returned by the API.
type Reservation struct {
	ID        string   `json:"id"`
	RoomID    string   `json:"roomId"`
	UserID    string   `json:"userId"`
	Date      string   `json:"date"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees int      `json:"attendees"`
	Equipment []string `json:"equipment"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

func (r Reservation) toScheduler() scheduler.Reservation {
	return scheduler.Reservation{
		ID:        r.ID,
		RoomID:    r.RoomID,
		UserID:    r.UserID,
		Date:      r.Date,
		Start:     r.Start,
		End:       r.End,
		Attendees: r.Attendees,
		Equipment: equipmentSet(r.Equipment),
	}
}

// ReservationRequest is the body of POST /api/reservations.
type ReservationRequest struct {
	RoomID    string   `json:"roomId"`
	Date      string   `json:"date"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Attendees int      `json:"attendees"`
	Equipment []string `json:"equipment"`
}

// Slot is a same-room time window.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Alternatives is the recovery menu offered after a conflict.
type Alternatives struct {
	Slots []Slot `json:"slots"`
	Rooms []Room `json:"rooms"`
}

// Empty reports whether nothing can be offered.
func (a Alternatives) Empty() bool {
	return len(a.Slots) == 0 && len(a.Rooms) == 0
}

// User is the account attached to a session.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	User      User   `json:"user"`
}

// equipmentSet drops unknown kinds; the server is the authority on validity.
func equipmentSet(values []string) scheduler.EquipmentSet {
	set := scheduler.NewEquipmentSet()
	for _, value := range values {
		if e, err := scheduler.ParseEquipment(value); err == nil {
			set[e] = struct{}{}
		}
	}
	return set
}
