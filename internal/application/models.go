package application

import (
	"time"

	"github.com/example/room-booking/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Floor     int
	Capacity  int
	Equipment []string
}

// Room represents a catalog entry for a physical meeting room.
type Room struct {
	ID        string
	Name      string
	Floor     int
	Capacity  int
	Equipment scheduler.EquipmentSet
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Room) toScheduler() scheduler.Room {
	return scheduler.Room{
		ID:        r.ID,
		Name:      r.Name,
		Floor:     r.Floor,
		Capacity:  r.Capacity,
		Equipment: r.Equipment,
	}
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// ReservationInput captures the caller provided booking request fields.
type ReservationInput struct {
	RoomID    string
	Date      string
	Start     string
	End       string
	Attendees int
	Equipment []string
}

// Reservation is a committed booking of a room.
type Reservation struct {
	ID        string
	RoomID    string
	UserID    string
	Date      string
	Start     string
	End       string
	Attendees int
	Equipment scheduler.EquipmentSet
	CreatedAt time.Time
}

func (r Reservation) toScheduler() scheduler.Reservation {
	return scheduler.Reservation{
		ID:        r.ID,
		RoomID:    r.RoomID,
		Date:      r.Date,
		Start:     r.Start,
		End:       r.End,
		Attendees: r.Attendees,
		Equipment: r.Equipment,
		UserID:    r.UserID,
	}
}

// CreateReservationParams wraps the data required to book a room.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// SearchParams describes the availability filter used by the room listing and alternatives.
type SearchParams struct {
	Date           string
	Start          string
	End            string
	Attendees      int
	Equipment      []string
	PreferredFloor *int
}

// TimeSlot is a same-room window proposed after a conflict.
type TimeSlot struct {
	Start string
	End   string
}

// Alternatives bundles the recovery menu for a request that cannot be booked as is.
type Alternatives struct {
	Slots []TimeSlot
	Rooms []Room
}

// Event type names written to the outbox.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
)

// OutboxEvent is a domain event persisted alongside the change that produced it.
type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
