package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-booking/internal/persistence"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	user := persistence.User{
		ID:           "user-1",
		Email:        " Kim@Example.com ",
		DisplayName:  "Kim",
		PasswordHash: "argon-hash",
		IsAdmin:      true,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	if err := storage.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byID, err := storage.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if byID.Email != "kim@example.com" || !byID.IsAdmin || byID.Disabled || byID.PasswordHash != "argon-hash" {
		t.Fatalf("unexpected user %+v", byID)
	}

	byEmail, err := storage.GetUserByEmail(ctx, "KIM@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Fatalf("unexpected user %+v", byEmail)
	}

	if _, err := storage.GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_CreateUser_Duplicate(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "lee@example.com")

	dup := persistence.User{ID: "user-2", Email: "LEE@example.com", DisplayName: "Lee", PasswordHash: "x", CreatedAt: testNow, UpdatedAt: testNow}
	if err := storage.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := storage.CreateUser(ctx, persistence.User{ID: "user-3", Email: "x@example.com"}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation without password hash, got %v", err)
	}
}

func TestUserRepository_ListUsers(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-2", "park@example.com")
	seedUser(t, storage, "user-1", "choi@example.com")

	users, err := storage.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].Email != "choi@example.com" {
		t.Fatalf("expected users ordered by email, got %+v", users)
	}
}
