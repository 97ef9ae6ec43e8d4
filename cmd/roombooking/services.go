package main

import (
	"log/slog"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

type services struct {
	rooms        *application.RoomService
	reservations *application.ReservationService
	auth         *application.AuthService
	users        *application.UserService
}

func newServices(storage *sqlite.Storage, cfg config.Config, logger *slog.Logger) services {
	now := time.Now
	reservationRepo := newReservationRepositoryAdapter(storage)

	rooms := application.NewRoomServiceWithLogger(newRoomRepositoryAdapter(storage), reservationRepo, newID, now, cfg.CatalogCacheTTL, logger)
	return services{
		rooms:        rooms,
		reservations: application.NewReservationServiceWithLogger(reservationRepo, rooms, newID, now, logger),
		auth:         application.NewAuthServiceWithLogger(newCredentialStoreAdapter(storage), newSessionRepositoryAdapter(storage), nil, newSessionToken, now, cfg.SessionTTL, logger),
		users:        application.NewUserService(newUserRepositoryAdapter(storage), nil, newID, now, logger),
	}
}

func openStorage(cfg config.Config, logger *slog.Logger) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(cfg.SQLiteDSN, logger)
	if err != nil {
		return nil, err
	}
	return storage, nil
}
