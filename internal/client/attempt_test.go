package client

import (
	"context"
	"errors"
	"testing"
)

type fakeBookingAPI struct {
	rooms        []Room
	reservations []Reservation
	createErrs   []error
	created      []ReservationRequest
	listCalls    int
}

func (f *fakeBookingAPI) ListRooms(ctx context.Context) ([]Room, error) {
	f.listCalls++
	return f.rooms, nil
}

func (f *fakeBookingAPI) ListReservations(ctx context.Context, date string) ([]Reservation, error) {
	var out []Reservation
	for _, r := range f.reservations {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBookingAPI) CreateReservation(ctx context.Context, booking ReservationRequest) (Reservation, error) {
	f.created = append(f.created, booking)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return Reservation{}, err
		}
	}
	return Reservation{ID: "res-new", RoomID: booking.RoomID, Date: booking.Date, Start: booking.Start, End: booking.End, Attendees: booking.Attendees}, nil
}

func referenceRooms() []Room {
	return []Room{
		{ID: "room-1", Name: "회의실 A", Floor: 1, Capacity: 4, Equipment: []string{"tv", "whiteboard"}},
		{ID: "room-2", Name: "회의실 B", Floor: 1, Capacity: 8, Equipment: []string{"tv", "whiteboard", "video"}},
		{ID: "room-3", Name: "대회의실", Floor: 2, Capacity: 20, Equipment: []string{"tv", "whiteboard", "video", "speaker"}},
		{ID: "room-4", Name: "소회의실", Floor: 2, Capacity: 3, Equipment: []string{"whiteboard"}},
	}
}

func TestAttemptLocalValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		form Form
		want string
	}{
		{name: "no room", form: Form{Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 2}, want: msgRoomRequired},
		{name: "end before start", form: Form{RoomID: "room-1", Date: "2024-01-02", Start: "11:00", End: "10:00", Attendees: 2}, want: msgEndBeforeStart},
		{name: "equal bounds", form: Form{RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "10:00", Attendees: 2}, want: msgEndBeforeStart},
		{name: "no attendees", form: Form{RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "11:00"}, want: msgAttendeesTooFew},
		{name: "bad time", form: Form{RoomID: "room-1", Date: "2024-01-02", Start: "10h", End: "11:00", Attendees: 1}, want: msgTimeFormatInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeBookingAPI{}
			attempt := NewAttempt(api, tc.form)
			_, err := attempt.Submit(context.Background())
			var lErr *LocalValidationError
			if !errors.As(err, &lErr) || lErr.Message != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
			if attempt.State() != StateIdle {
				t.Fatalf("expected idle, got %s", attempt.State())
			}
			if len(api.created) != 0 {
				t.Fatalf("nothing should be dispatched")
			}
		})
	}
}

func TestAttemptConflictThenSelectSlot(t *testing.T) {
	t.Parallel()

	api := &fakeBookingAPI{
		rooms: referenceRooms(),
		reservations: []Reservation{
			{ID: "res-1", RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 3},
		},
		createErrs: []error{&APIError{Status: 409, Code: CodeConflict}},
	}
	attempt := NewAttempt(api, Form{RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 2})

	if _, err := attempt.Submit(context.Background()); !IsCode(err, CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if attempt.State() != StateConflict {
		t.Fatalf("expected conflict state, got %s", attempt.State())
	}

	alt := attempt.Alternatives()
	wantSlots := []Slot{{Start: "09:00", End: "10:00"}, {Start: "11:00", End: "12:00"}}
	if len(alt.Slots) != len(wantSlots) {
		t.Fatalf("slots = %+v, want %+v", alt.Slots, wantSlots)
	}
	for i, s := range wantSlots {
		if alt.Slots[i] != s {
			t.Fatalf("slot %d = %+v, want %+v", i, alt.Slots[i], s)
		}
	}
	wantRooms := []string{"room-2", "room-3", "room-4"}
	for i, id := range wantRooms {
		if alt.Rooms[i].ID != id {
			t.Fatalf("room %d = %s, want %s", i, alt.Rooms[i].ID, id)
		}
	}
	if len(api.created) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(api.created))
	}

	attempt.SelectSlot(alt.Slots[1])
	if attempt.State() != StateIdle || attempt.Form().Start != "11:00" {
		t.Fatalf("expected idle with new window, got %s %+v", attempt.State(), attempt.Form())
	}
	if !attempt.Alternatives().Empty() {
		t.Fatalf("alternatives should clear on selection")
	}

	reservation, err := attempt.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if reservation.Start != "11:00" || attempt.State() != StateCommitted {
		t.Fatalf("unexpected commit %+v in %s", reservation, attempt.State())
	}
	if _, ok := attempt.Snapshot(); ok {
		t.Fatalf("snapshot should be invalidated after commit")
	}
}

func TestAttemptConflictMergesServerConflicts(t *testing.T) {
	t.Parallel()

	api := &fakeBookingAPI{
		rooms: referenceRooms(),
		createErrs: []error{&APIError{Status: 409, Code: CodeConflict, Conflicts: []Reservation{
			{ID: "res-late", RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "12:00"},
		}}},
	}
	attempt := NewAttempt(api, Form{RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 2})
	if _, err := attempt.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	_, _ = attempt.Submit(context.Background())

	slots := attempt.Alternatives().Slots
	if len(slots) != 2 || slots[1].Start != "12:00" {
		t.Fatalf("expected slots around the server-reported booking, got %+v", slots)
	}
	if api.listCalls != 1 {
		t.Fatalf("existing snapshot should be reused, ListRooms called %d times", api.listCalls)
	}
}

func TestAttemptSelectRoomAndFailure(t *testing.T) {
	t.Parallel()

	boom := &TransportError{Op: "POST /api/reservations", Err: errors.New("connection reset")}
	api := &fakeBookingAPI{rooms: referenceRooms(), createErrs: []error{boom}}
	attempt := NewAttempt(api, Form{RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 2})

	if _, err := attempt.Submit(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if attempt.State() != StateIdle || !errors.Is(attempt.Err(), boom) {
		t.Fatalf("expected idle with the failure recorded, got %s %v", attempt.State(), attempt.Err())
	}
	if attempt.Form().RoomID != "room-1" {
		t.Fatalf("failure should keep the form, got %+v", attempt.Form())
	}

	attempt.SelectRoom("room-2")
	if attempt.State() != StateIdle || attempt.Form().RoomID != "room-2" || attempt.Err() != nil {
		t.Fatalf("expected idle on room-2, got %s %+v", attempt.State(), attempt.Form())
	}
	if _, err := attempt.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if len(api.created) != 2 || api.created[1].RoomID != "room-2" {
		t.Fatalf("unexpected dispatches %+v", api.created)
	}
}

func TestAttemptStateConflictIsNotABookingConflict(t *testing.T) {
	t.Parallel()

	stale := &APIError{Status: 409, Code: CodeStateConflict}
	api := &fakeBookingAPI{rooms: referenceRooms(), createErrs: []error{stale}}
	attempt := NewAttempt(api, Form{RoomID: "room-1", Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 2})

	if _, err := attempt.Submit(context.Background()); !IsCode(err, CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if attempt.State() != StateIdle || !attempt.Alternatives().Empty() {
		t.Fatalf("expected idle without alternatives, got %s %+v", attempt.State(), attempt.Alternatives())
	}
	if api.listCalls != 0 {
		t.Fatalf("no snapshot should be loaded, ListRooms called %d times", api.listCalls)
	}
}

func TestAttemptAvailableRooms(t *testing.T) {
	t.Parallel()

	floor := 2
	api := &fakeBookingAPI{
		rooms: referenceRooms(),
		reservations: []Reservation{
			{ID: "res-1", RoomID: "room-3", Date: "2024-01-02", Start: "10:00", End: "12:00"},
		},
	}
	attempt := NewAttempt(api, Form{Date: "2024-01-02", Start: "10:00", End: "11:00", Attendees: 3, PreferredFloor: &floor})
	if got := attempt.AvailableRooms(); got != nil {
		t.Fatalf("expected nil without snapshot, got %+v", got)
	}
	if _, err := attempt.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	rooms := attempt.AvailableRooms()
	if len(rooms) != 1 || rooms[0].ID != "room-4" {
		t.Fatalf("expected room-4 only, got %+v", rooms)
	}

	next := attempt.Form()
	next.Date = "2024-01-03"
	attempt.Update(next)
	if _, ok := attempt.Snapshot(); ok {
		t.Fatalf("date change should drop the snapshot")
	}
}
