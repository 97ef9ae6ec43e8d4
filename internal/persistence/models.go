package persistence

import "time"

// User represents an account able to sign in and book rooms.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a meeting room catalog entry. Equipment holds canonical
// equipment codes.
type Room struct {
	ID        string
	Name      string
	Floor     int
	Capacity  int
	Equipment []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is a committed booking row. Date is YYYY-MM-DD and the times
// are zero padded HH:MM so that lexical comparison matches clock order.
type Reservation struct {
	ID        string
	RoomID    string
	UserID    string
	Date      string
	Start     string
	End       string
	Attendees int
	Equipment []string
	CreatedAt time.Time
}

// Session represents an authentication session persisted for a user.
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

// OutboxRecord is a domain event waiting to be relayed to the message broker.
type OutboxRecord struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	Traceparent string
	Tracestate  string
	CreatedAt   time.Time
	PublishedAt *time.Time
}
