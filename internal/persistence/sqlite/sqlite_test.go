package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

var testNow = time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rooms.db")
	storage, err := OpenWithConfig(migration.TempFileTestSQLiteConfig(dsn), nil)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return storage
}

func seedRoom(t *testing.T, storage *Storage, id string) persistence.Room {
	t.Helper()
	room := persistence.Room{
		ID:        id,
		Name:      "Room " + id,
		Floor:     1,
		Capacity:  8,
		Equipment: []string{"tv", "whiteboard"},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if err := storage.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	return room
}

func seedUser(t *testing.T, storage *Storage, id, email string) persistence.User {
	t.Helper()
	user := persistence.User{
		ID:           id,
		Email:        email,
		DisplayName:  "User " + id,
		PasswordHash: "hash",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	if err := storage.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func TestStorage_Migrate(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if err := storage.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate should be a no-op: %v", err)
	}

	status, err := storage.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if status.PendingCount != 0 || status.CurrentVersion != "004" {
		t.Fatalf("unexpected status %+v", status)
	}
	if err := storage.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestErrorMapper_MapError(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedRoom(t, storage, "room-1")

	err := storage.CreateRoom(ctx, persistence.Room{ID: "room-1", Name: "Other", Capacity: 2})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
