package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/scheduler"
)

// ReservationRepository captures the persistence interactions needed by the service.
type ReservationRepository interface {
	// InsertReservation atomically checks the room and date for overlapping
	// reservations and inserts reservation together with event when none exist.
	// When overlaps are found nothing is written and they are returned instead.
	InsertReservation(ctx context.Context, reservation Reservation, event OutboxEvent) (Reservation, []Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	DeleteReservation(ctx context.Context, id string, event OutboxEvent) error
	ListReservationsByDate(ctx context.Context, date string) ([]Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]Reservation, error)
}

// RoomCatalog exposes the room lookups needed when booking.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	Catalog(ctx context.Context) ([]Room, error)
}

// ReservationService implements the booking commit protocol.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomCatalog
	locks        *keyedMutex
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationRepository, rooms RoomCatalog, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, idGenerator, now, nil)
}

// NewReservationServiceWithLogger wires dependencies for reservation operations with a specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, rooms RoomCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		locks:        newKeyedMutex(),
		idGenerator:  idGenerator,
		now:          now,
		logger:       logging.OrDefault(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, s.logger, "service", "ReservationService", operation, attrs...)
}

// CreateReservation validates the request, then checks for overlaps and inserts
// under a per room and date lock. Overlaps produce a *ConflictError carrying
// alternatives computed from the current state.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation service not configured")
		return
	}

	input := params.Input
	ctx, span := startSpan(ctx, "ReservationService.CreateReservation",
		attribute.String("booking.room_id", input.RoomID),
		attribute.String("booking.date", input.Date),
	)
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"room_id", input.RoomID,
		"date", input.Date,
		"start", input.Start,
		"end", input.End,
	)
	defer func() {
		var cErr *ConflictError
		switch {
		case errors.As(err, &cErr):
			logger.WarnContext(ctx, "reservation conflicts with existing bookings",
				"conflict_count", len(cErr.Conflicts),
				"alternative_slots", len(cErr.AlternativeSlots),
				"alternative_rooms", len(cErr.AlternativeRooms),
			)
		case err != nil:
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
		default:
			logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
		}
	}()

	if strings.TrimSpace(params.Principal.UserID) == "" {
		err = ErrUnauthorized
		return
	}

	roomID := strings.TrimSpace(input.RoomID)
	vErr := &ValidationError{}
	if roomID == "" {
		vErr.add("room_id", msgRoomRequired)
	}
	criteria, fieldErrs := buildCriteria(SearchParams{
		Date:      input.Date,
		Start:     input.Start,
		End:       input.End,
		Attendees: input.Attendees,
		Equipment: input.Equipment,
	}, 1)
	vErr.merge(fieldErrs)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if isNotFound(err) {
			vErr.add("room_id", msgRoomUnknown)
			err = vErr
		}
		return
	}
	if room.Capacity < criteria.Attendees {
		vErr.add("attendees", msgCapacityExceeded)
	}
	if !room.Equipment.Contains(criteria.Equipment) {
		vErr.add("equipment", msgEquipmentMissing)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	unlock := s.locks.Lock(roomDayKey(roomID, criteria.Date))
	defer unlock()

	candidate := Reservation{
		ID:        s.idGenerator(),
		RoomID:    roomID,
		UserID:    params.Principal.UserID,
		Date:      criteria.Date,
		Start:     criteria.Start,
		End:       criteria.End,
		Attendees: criteria.Attendees,
		Equipment: criteria.Equipment,
		CreatedAt: s.now(),
	}

	var event OutboxEvent
	event, err = s.newEvent(EventReservationCreated, candidate)
	if err != nil {
		return
	}

	var conflicts []Reservation
	reservation, conflicts, err = s.reservations.InsertReservation(ctx, candidate, event)
	if err != nil {
		reservation = Reservation{}
		return
	}
	if len(conflicts) > 0 {
		reservation = Reservation{}
		err = s.conflictError(ctx, roomID, criteria, conflicts)
		return
	}
	return
}

func (s *ReservationService) conflictError(ctx context.Context, roomID string, criteria scheduler.Criteria, conflicts []Reservation) error {
	conflict := &ConflictError{
		RoomID:    roomID,
		Date:      criteria.Date,
		Conflicts: conflicts,
	}
	alternatives, err := s.alternatives(ctx, roomID, criteria)
	if err != nil {
		s.loggerWith(ctx, "CreateReservation", "room_id", roomID).
			WarnContext(ctx, "failed to compute alternatives", "error", err)
		return conflict
	}
	conflict.AlternativeSlots = alternatives.Slots
	conflict.AlternativeRooms = alternatives.Rooms
	return conflict
}

// FindAlternatives returns the recovery menu for booking roomID with params:
// other free windows of the same length in that room, and other rooms free for the same window.
func (s *ReservationService) FindAlternatives(ctx context.Context, roomID string, params SearchParams) (result Alternatives, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation service not configured")
		return
	}

	ctx, span := startSpan(ctx, "ReservationService.FindAlternatives",
		attribute.String("booking.room_id", roomID),
		attribute.String("booking.date", params.Date),
	)
	defer func() { endSpan(span, err) }()

	criteria, vErr := buildCriteria(params, 0)
	if strings.TrimSpace(roomID) == "" {
		vErr.add("room_id", msgRoomRequired)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	result, err = s.alternatives(ctx, strings.TrimSpace(roomID), criteria)
	return
}

func (s *ReservationService) alternatives(ctx context.Context, roomID string, criteria scheduler.Criteria) (Alternatives, error) {
	catalog, err := s.rooms.Catalog(ctx)
	if err != nil {
		return Alternatives{}, err
	}
	snapshot, err := s.reservations.ListReservationsByDate(ctx, criteria.Date)
	if err != nil {
		return Alternatives{}, err
	}
	duration, err := criteria.Duration()
	if err != nil {
		return Alternatives{}, err
	}

	reservations := toSchedulerReservations(snapshot)

	var result Alternatives
	for _, slot := range scheduler.FindAlternativeTimeSlots(roomID, reservations, criteria.Date, duration, scheduler.DefaultMaxSlots) {
		result.Slots = append(result.Slots, TimeSlot{Start: slot.Start, End: slot.End})
	}

	byID := make(map[string]Room, len(catalog))
	for _, room := range catalog {
		byID[room.ID] = room
	}
	for _, room := range scheduler.FindAlternativeRooms(toSchedulerRooms(catalog), reservations, roomID, criteria, scheduler.DefaultMaxRooms) {
		result.Rooms = append(result.Rooms, byID[room.ID])
	}
	return result, nil
}

// CancelReservation deletes a reservation owned by the principal. Administrators may cancel any reservation.
func (s *ReservationService) CancelReservation(ctx context.Context, principal Principal, reservationID string) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	id := strings.TrimSpace(reservationID)
	ctx, span := startSpan(ctx, "ReservationService.CancelReservation",
		attribute.String("booking.reservation_id", id),
	)
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", principal.UserID,
		"reservation_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	if strings.TrimSpace(principal.UserID) == "" {
		err = ErrUnauthorized
		return
	}
	if id == "" {
		err = ErrNotFound
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, id)
	if err != nil {
		return
	}
	if existing.UserID != principal.UserID && !principal.IsAdmin {
		err = ErrForbidden
		return
	}

	unlock := s.locks.Lock(roomDayKey(existing.RoomID, existing.Date))
	defer unlock()

	var event OutboxEvent
	event, err = s.newEvent(EventReservationCancelled, existing)
	if err != nil {
		return
	}
	err = s.reservations.DeleteReservation(ctx, id, event)
	return
}

// ListReservations returns every reservation on date ordered by start time.
func (s *ReservationService) ListReservations(ctx context.Context, date string) (reservations []Reservation, err error) {
	if s == nil || s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	date = strings.TrimSpace(date)
	logger := s.loggerWith(ctx, "ListReservations", "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).DebugContext(ctx, "reservations listed")
	}()

	if !ValidDate(date) {
		vErr := &ValidationError{}
		vErr.add("date", msgDateInvalid)
		err = vErr
		return
	}

	reservations, err = s.reservations.ListReservationsByDate(ctx, date)
	if err != nil {
		return
	}
	sortReservations(reservations)
	return
}

// ListMyReservations returns the principal's reservations ordered by date and start time.
func (s *ReservationService) ListMyReservations(ctx context.Context, principal Principal) (reservations []Reservation, err error) {
	if s == nil || s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "ListMyReservations", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).DebugContext(ctx, "reservations listed")
	}()

	if strings.TrimSpace(principal.UserID) == "" {
		err = ErrUnauthorized
		return
	}

	reservations, err = s.reservations.ListReservationsByUser(ctx, principal.UserID)
	if err != nil {
		return
	}
	sortReservations(reservations)
	return
}

type reservationEvent struct {
	ReservationID string   `json:"reservation_id"`
	RoomID        string   `json:"room_id"`
	UserID        string   `json:"user_id"`
	Date          string   `json:"date"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
	Attendees     int      `json:"attendees"`
	Equipment     []string `json:"equipment"`
	OccurredAt    string   `json:"occurred_at"`
}

func (s *ReservationService) newEvent(eventType string, r Reservation) (OutboxEvent, error) {
	now := s.now()
	payload, err := json.Marshal(reservationEvent{
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		UserID:        r.UserID,
		Date:          r.Date,
		Start:         r.Start,
		End:           r.End,
		Attendees:     r.Attendees,
		Equipment:     r.Equipment.Strings(),
		OccurredAt:    now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return OutboxEvent{
		ID:          s.idGenerator(),
		AggregateID: r.RoomID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}

func sortReservations(reservations []Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		return a.ID < b.ID
	})
}
