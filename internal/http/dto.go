package http

import (
	"time"

	"github.com/example/room-booking/internal/application"
)

type roomDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Floor     int      `json:"floor"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Floor:     room.Floor,
		Capacity:  room.Capacity,
		Equipment: room.Equipment.Strings(),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}

type reservationDTO struct {
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

func toReservationDTO(r application.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:        r.ID,
		RoomID:    r.RoomID,
		UserID:    r.UserID,
		Date:      r.Date,
		Start:     r.Start,
		End:       r.End,
		Attendees: r.Attendees,
		Equipment: r.Equipment.Strings(),
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationDTO(r))
	}
	return out
}

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type alternativesDTO struct {
	Slots []slotDTO `json:"slots"`
	Rooms []roomDTO `json:"rooms"`
}

func toAlternativesDTO(alt application.Alternatives) alternativesDTO {
	dto := alternativesDTO{Slots: make([]slotDTO, 0, len(alt.Slots)), Rooms: toRoomDTOs(alt.Rooms)}
	for _, slot := range alt.Slots {
		dto.Slots = append(dto.Slots, slotDTO{Start: slot.Start, End: slot.End})
	}
	return dto
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

func toUserDTO(user application.User) userDTO {
	dto := userDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsAdmin:     user.IsAdmin,
	}
	if !user.CreatedAt.IsZero() {
		dto.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
