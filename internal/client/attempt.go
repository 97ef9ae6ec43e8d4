package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/example/room-booking/internal/scheduler"
)

// State is the phase of a booking attempt. A failed dispatch is not a
// resting phase: Submit returns the error, keeps it in Err, and the attempt
// is Idle again.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateConflict
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateConflict:
		return "conflict"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

const (
	msgRoomRequired      = "회의실을 선택해주세요"
	msgEndBeforeStart    = "종료 시간은 시작 시간보다 늦어야 합니다"
	msgAttendeesTooFew   = "참석 인원은 1명 이상이어야 합니다"
	msgTimeFormatInvalid = "시간 형식이 올바르지 않습니다"
)

// BookingAPI is the subset of Client an Attempt dispatches to.
type BookingAPI interface {
	ListRooms(ctx context.Context) ([]Room, error)
	ListReservations(ctx context.Context, date string) ([]Reservation, error)
	CreateReservation(ctx context.Context, booking ReservationRequest) (Reservation, error)
}

// Form holds the user's current booking choices.
type Form struct {
	RoomID         string
	Date           string
	Start          string
	End            string
	Attendees      int
	Equipment      []string
	PreferredFloor *int
}

// Snapshot is the last catalog and day schedule loaded from the server.
type Snapshot struct {
	Date         string
	Rooms        []Room
	Reservations []Reservation
}

// Attempt drives one booking from form entry to commit. It never retries on
// its own: after a conflict the caller picks an alternative and submits again.
type Attempt struct {
	api BookingAPI

	mu           sync.Mutex
	state        State
	form         Form
	snapshot     *Snapshot
	alternatives Alternatives
	committed    *Reservation
	err          error
}

// NewAttempt starts an idle attempt over api.
func NewAttempt(api BookingAPI, form Form) *Attempt {
	return &Attempt{api: api, form: form}
}

// State returns the current phase.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Form returns the current choices.
func (a *Attempt) Form() Form {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form
}

// Alternatives returns the menu computed for the last conflict.
func (a *Attempt) Alternatives() Alternatives {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alternatives
}

// Committed returns the reservation once the attempt reached StateCommitted.
func (a *Attempt) Committed() (Reservation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.committed == nil {
		return Reservation{}, false
	}
	return *a.committed, true
}

// Err returns the error of the last failed dispatch, cleared by the next
// Submit or by any form change.
func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Snapshot returns the cached snapshot, if any.
func (a *Attempt) Snapshot() (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshot == nil {
		return Snapshot{}, false
	}
	return *a.snapshot, true
}

// Refresh reloads the catalog and the reservations for the form's date.
func (a *Attempt) Refresh(ctx context.Context) (Snapshot, error) {
	date := a.Form().Date
	rooms, err := a.api.ListRooms(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	reservations, err := a.api.ListReservations(ctx, date)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Date: date, Rooms: rooms, Reservations: reservations}

	a.mu.Lock()
	a.snapshot = &snap
	a.mu.Unlock()
	return snap, nil
}

// AvailableRooms filters the snapshot by the form, as the listing view does.
func (a *Attempt) AvailableRooms() []Room {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshot == nil {
		return nil
	}
	rooms := schedulerRooms(a.snapshot.Rooms)
	available := scheduler.AvailableRooms(rooms, schedulerReservations(a.snapshot.Reservations), a.criteria())
	return pickRooms(a.snapshot.Rooms, available)
}

// Submit validates the form locally and dispatches it once.
//
// A local failure leaves the attempt idle and returns *LocalValidationError.
// A CONFLICT response moves it to StateConflict with alternatives computed
// from the snapshot. Any other failure is recorded in Err and the attempt
// returns to StateIdle.
func (a *Attempt) Submit(ctx context.Context) (Reservation, error) {
	a.mu.Lock()
	if a.state == StateValidating {
		a.mu.Unlock()
		return Reservation{}, errors.New("booking already in flight")
	}
	if a.state == StateCommitted {
		committed := *a.committed
		a.mu.Unlock()
		return committed, nil
	}
	if err := validateForm(a.form); err != nil {
		a.state = StateIdle
		a.mu.Unlock()
		return Reservation{}, err
	}
	a.state = StateValidating
	a.alternatives = Alternatives{}
	a.err = nil
	form := a.form
	a.mu.Unlock()

	reservation, err := a.api.CreateReservation(ctx, ReservationRequest{
		RoomID:    form.RoomID,
		Date:      form.Date,
		Start:     form.Start,
		End:       form.End,
		Attendees: form.Attendees,
		Equipment: form.Equipment,
	})
	if err == nil {
		a.mu.Lock()
		a.state = StateCommitted
		a.committed = &reservation
		a.snapshot = nil
		a.mu.Unlock()
		return reservation, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == CodeConflict {
		a.onConflict(ctx, apiErr)
		return Reservation{}, err
	}

	a.mu.Lock()
	a.state = StateIdle
	a.err = err
	a.mu.Unlock()
	return Reservation{}, err
}

func (a *Attempt) onConflict(ctx context.Context, apiErr *APIError) {
	if snap, ok := a.Snapshot(); !ok || snap.Date != a.Form().Date {
		if _, err := a.Refresh(ctx); err != nil && apiErr.Alternatives != nil {
			a.mu.Lock()
			a.state = StateConflict
			a.alternatives = *apiErr.Alternatives
			a.mu.Unlock()
			return
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateConflict
	if a.snapshot == nil {
		return
	}
	// The server may have seen a booking the snapshot lacks.
	reservations := a.snapshot.Reservations
	for _, c := range apiErr.Conflicts {
		if !containsReservation(reservations, c.ID) {
			reservations = append(reservations, c)
		}
	}
	a.alternatives = computeAlternatives(a.form, a.snapshot.Rooms, reservations, a.criteria())
}

// SelectSlot moves the form to another window in the same room.
func (a *Attempt) SelectSlot(slot Slot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.form.Start = slot.Start
	a.form.End = slot.End
	a.reset()
}

// SelectRoom moves the form to another room for the same window.
func (a *Attempt) SelectRoom(roomID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.form.RoomID = roomID
	a.reset()
}

// Update replaces the form. A date change drops the snapshot.
func (a *Attempt) Update(form Form) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.snapshot != nil && a.snapshot.Date != form.Date {
		a.snapshot = nil
	}
	a.form = form
	a.reset()
}

func (a *Attempt) reset() {
	a.state = StateIdle
	a.alternatives = Alternatives{}
	a.committed = nil
	a.err = nil
}

func (a *Attempt) criteria() scheduler.Criteria {
	return scheduler.Criteria{
		Date:           a.form.Date,
		Start:          a.form.Start,
		End:            a.form.End,
		Attendees:      a.form.Attendees,
		Equipment:      equipmentSet(a.form.Equipment),
		PreferredFloor: a.form.PreferredFloor,
	}
}

func validateForm(form Form) error {
	if strings.TrimSpace(form.RoomID) == "" {
		return &LocalValidationError{Message: msgRoomRequired}
	}
	start, err := scheduler.TimeToMinutes(form.Start)
	if err != nil {
		return &LocalValidationError{Message: msgTimeFormatInvalid}
	}
	end, err := scheduler.TimeToMinutes(form.End)
	if err != nil {
		return &LocalValidationError{Message: msgTimeFormatInvalid}
	}
	if end <= start {
		return &LocalValidationError{Message: msgEndBeforeStart}
	}
	if form.Attendees < 1 {
		return &LocalValidationError{Message: msgAttendeesTooFew}
	}
	return nil
}

func computeAlternatives(form Form, rooms []Room, reservations []Reservation, c scheduler.Criteria) Alternatives {
	out := Alternatives{Slots: []Slot{}, Rooms: []Room{}}
	duration, err := c.Duration()
	if err != nil {
		return out
	}
	schedReservations := schedulerReservations(reservations)
	for _, slot := range scheduler.FindAlternativeTimeSlots(form.RoomID, schedReservations, form.Date, duration, scheduler.DefaultMaxSlots) {
		out.Slots = append(out.Slots, Slot{Start: slot.Start, End: slot.End})
	}
	found := scheduler.FindAlternativeRooms(schedulerRooms(rooms), schedReservations, form.RoomID, c, scheduler.DefaultMaxRooms)
	out.Rooms = append(out.Rooms, pickRooms(rooms, found)...)
	return out
}

func schedulerRooms(rooms []Room) []scheduler.Room {
	out := make([]scheduler.Room, len(rooms))
	for i, r := range rooms {
		out[i] = r.toScheduler()
	}
	return out
}

func schedulerReservations(reservations []Reservation) []scheduler.Reservation {
	out := make([]scheduler.Reservation, len(reservations))
	for i, r := range reservations {
		out[i] = r.toScheduler()
	}
	return out
}

// pickRooms maps scheduler results back to API rooms, keeping result order.
func pickRooms(rooms []Room, picked []scheduler.Room) []Room {
	byID := make(map[string]Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	out := make([]Room, 0, len(picked))
	for _, p := range picked {
		if r, ok := byID[p.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func containsReservation(reservations []Reservation, id string) bool {
	for _, r := range reservations {
		if r.ID == id {
			return true
		}
	}
	return false
}
