package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/testfixtures"
)

func TestMapStoreError(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{in: fmt.Errorf("get room: %w", persistence.ErrNotFound), want: application.ErrNotFound},
		{in: fmt.Errorf("insert user: %w", persistence.ErrDuplicate), want: application.ErrAlreadyExists},
		{in: fmt.Errorf("delete room: %w", persistence.ErrForeignKeyViolation), want: application.ErrConflict},
	}
	for _, tc := range cases {
		if got := mapStoreError(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("mapStoreError(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if mapStoreError(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}
	other := errors.New("disk full")
	if got := mapStoreError(other); got != other {
		t.Fatalf("expected unknown errors to pass through, got %v", got)
	}
}

func newTestServices(t *testing.T) (*testfixtures.SQLiteHarness, services) {
	t.Helper()
	h := testfixtures.NewSQLiteHarness(t)
	if _, err := seedRooms(context.Background(), h.Rooms, testfixtures.ReferenceTime()); err != nil {
		t.Fatalf("seedRooms failed: %v", err)
	}
	cfg := config.Config{SessionTTL: time.Hour, CatalogCacheTTL: time.Minute}
	return h, newServices(h.Storage, cfg, nil)
}

func TestSeedRooms_Idempotent(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	created, err := seedRooms(ctx, h.Rooms, testfixtures.ReferenceTime())
	if err != nil || created != 6 {
		t.Fatalf("first seed created %d rooms, err %v", created, err)
	}
	created, err = seedRooms(ctx, h.Rooms, testfixtures.ReferenceTime())
	if err != nil || created != 0 {
		t.Fatalf("second seed created %d rooms, err %v", created, err)
	}

	rooms, err := h.Rooms.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 6 {
		t.Fatalf("expected 6 rooms, got %d", len(rooms))
	}
}

func TestServices_UserAndSessionLifecycle(t *testing.T) {
	_, svc := newTestServices(t)
	ctx := context.Background()

	user, err := svc.users.CreateUser(ctx, application.CreateUserParams{
		Principal: operator,
		Input:     application.UserInput{Email: "Kim@Example.com", DisplayName: "Kim", Password: "password1"},
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.Email != "kim@example.com" || user.ID == "" {
		t.Fatalf("unexpected user: %+v", user)
	}

	_, err = svc.users.CreateUser(ctx, application.CreateUserParams{
		Principal: operator,
		Input:     application.UserInput{Email: "KIM@example.com", DisplayName: "Other", Password: "password2"},
	})
	if !errors.Is(err, application.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for duplicate email, got %v", err)
	}

	if _, err := svc.auth.Authenticate(ctx, application.AuthenticateParams{Email: "kim@example.com", Password: "wrong-pass"}); !errors.Is(err, application.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	result, err := svc.auth.Authenticate(ctx, application.AuthenticateParams{Email: "KIM@example.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if len(result.Session.Token) != 64 {
		t.Fatalf("expected 32 byte hex token, got %q", result.Session.Token)
	}

	principal, err := svc.auth.ValidateSession(ctx, result.Session.Token)
	if err != nil {
		t.Fatalf("ValidateSession failed: %v", err)
	}
	if principal.UserID != user.ID || principal.IsAdmin {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	if err := svc.auth.RevokeSession(ctx, result.Session.Token); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if _, err := svc.auth.ValidateSession(ctx, result.Session.Token); !errors.Is(err, application.ErrSessionRevoked) {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestServices_ReservationLifecycle(t *testing.T) {
	h, svc := newTestServices(t)
	ctx := context.Background()
	owner := application.Principal{UserID: "user-1"}
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	booked, err := svc.reservations.CreateReservation(ctx, application.CreateReservationParams{
		Principal: owner,
		Input:     application.ReservationInput{RoomID: "room-1", Date: date, Start: "10:00", End: "11:00", Attendees: 2},
	})
	if err != nil {
		t.Fatalf("CreateReservation failed: %v", err)
	}

	_, err = svc.reservations.CreateReservation(ctx, application.CreateReservationParams{
		Principal: application.Principal{UserID: "user-2"},
		Input:     application.ReservationInput{RoomID: "room-1", Date: date, Start: "10:30", End: "11:30", Attendees: 2},
	})
	var conflict *application.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].ID != booked.ID {
		t.Fatalf("unexpected conflicts: %+v", conflict.Conflicts)
	}
	if len(conflict.AlternativeSlots) == 0 || len(conflict.AlternativeRooms) == 0 {
		t.Fatalf("expected alternatives, got %+v", conflict)
	}

	listed, err := svc.reservations.ListReservations(ctx, date)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListReservations returned %d rows, err %v", len(listed), err)
	}

	if err := svc.rooms.DeleteRoom(ctx, operator, "room-1"); !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected ErrConflict deleting a booked room, got %v", err)
	}

	if err := svc.reservations.CancelReservation(ctx, application.Principal{UserID: "user-2"}, booked.ID); !errors.Is(err, application.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.reservations.CancelReservation(ctx, owner, booked.ID); err != nil {
		t.Fatalf("CancelReservation failed: %v", err)
	}
	if err := svc.reservations.CancelReservation(ctx, owner, booked.ID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cancel, got %v", err)
	}

	events, err := h.Outbox.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("FetchUnpublished failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected created and cancelled events, got %d", len(events))
	}
	if events[0].EventType != application.EventReservationCreated || events[1].EventType != application.EventReservationCancelled {
		t.Fatalf("unexpected event order: %s, %s", events[0].EventType, events[1].EventType)
	}
	for _, e := range events {
		if e.AggregateID != "room-1" {
			t.Fatalf("event %s keyed by %s, want room-1", e.ID, e.AggregateID)
		}
	}
}
