package application

import (
	"context"
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

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	DeleteRoom(ctx context.Context, id string) error
	ListRooms(ctx context.Context) ([]Room, error)
}

// ReservationLister reads the reservation snapshot for a single day.
type ReservationLister interface {
	ListReservationsByDate(ctx context.Context, date string) ([]Reservation, error)
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms        RoomRepository
	reservations ReservationLister
	cache        *catalogCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, reservations ReservationLister, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, reservations, idGenerator, now, 0, nil)
}

// NewRoomServiceWithLogger constructs a room service with a catalog cache TTL and a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, reservations ReservationLister, idGenerator func() string, now func() time.Time, cacheTTL time.Duration, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:        rooms,
		reservations: reservations,
		cache:        newCatalogCache(cacheTTL, now),
		idGenerator:  idGenerator,
		now:          now,
		logger:       logging.OrDefault(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, s.logger, "service", "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrForbidden
		return
	}

	equipment, vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	room = Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Floor:     params.Input.Floor,
		Capacity:  params.Input.Capacity,
		Equipment: equipment,
		CreatedAt: s.now(),
	}
	room.UpdatedAt = room.CreatedAt

	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	var persisted Room
	persisted, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		return
	}
	s.cache.Invalidate()

	room = persisted
	return
}

// DeleteRoom removes an existing room when requested by an administrator.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	if err := s.rooms.DeleteRoom(ctx, strings.TrimSpace(roomID)); err != nil {
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	s.cache.Invalidate()

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// GetRoom returns a single room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (Room, error) {
	if s == nil || s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}
	return s.rooms.GetRoom(ctx, strings.TrimSpace(roomID))
}

// ListRooms returns the catalog of rooms in floor, name order.
func (s *RoomService) ListRooms(ctx context.Context) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	rooms, err = s.Catalog(ctx)
	return
}

// Catalog returns the ordered room catalog, served from cache while fresh.
func (s *RoomService) Catalog(ctx context.Context) ([]Room, error) {
	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}
	if s.rooms == nil {
		return nil, nil
	}

	raw, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	rooms := make([]Room, len(raw))
	copy(rooms, raw)
	sortRooms(rooms)

	s.cache.Store(rooms)
	return rooms, nil
}

// SearchAvailableRooms returns the rooms that can host a meeting matching params.
func (s *RoomService) SearchAvailableRooms(ctx context.Context, params SearchParams) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	ctx, span := startSpan(ctx, "RoomService.SearchAvailableRooms",
		attribute.String("booking.date", params.Date),
	)
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "SearchAvailableRooms",
		"date", params.Date,
		"start", params.Start,
		"end", params.End,
		"attendees", params.Attendees,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "room search failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms searched")
	}()

	criteria, vErr := buildCriteria(params, 0)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var catalog []Room
	catalog, err = s.Catalog(ctx)
	if err != nil {
		return
	}

	var snapshot []Reservation
	if s.reservations != nil {
		snapshot, err = s.reservations.ListReservationsByDate(ctx, criteria.Date)
		if err != nil {
			return
		}
	}

	byID := make(map[string]Room, len(catalog))
	for _, room := range catalog {
		byID[room.ID] = room
	}
	for _, available := range scheduler.AvailableRooms(toSchedulerRooms(catalog), toSchedulerReservations(snapshot), criteria) {
		rooms = append(rooms, byID[available.ID])
	}
	return
}

func sortRooms(rooms []Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Floor != rooms[j].Floor {
			return rooms[i].Floor < rooms[j].Floor
		}
		if !strings.EqualFold(rooms[i].Name, rooms[j].Name) {
			return strings.ToLower(rooms[i].Name) < strings.ToLower(rooms[j].Name)
		}
		return rooms[i].ID < rooms[j].ID
	})
}

func validateRoomInput(input RoomInput) (scheduler.EquipmentSet, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", msgRoomNameRequired)
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", msgCapacityInvalid)
	}
	equipment, err := scheduler.ParseEquipmentList(input.Equipment)
	if err != nil {
		vErr.add("equipment", msgEquipmentUnknown)
	}

	return equipment, vErr
}

func toSchedulerRooms(rooms []Room) []scheduler.Room {
	out := make([]scheduler.Room, len(rooms))
	for i, room := range rooms {
		out[i] = room.toScheduler()
	}
	return out
}

func toSchedulerReservations(reservations []Reservation) []scheduler.Reservation {
	out := make([]scheduler.Reservation, len(reservations))
	for i, r := range reservations {
		out[i] = r.toScheduler()
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
