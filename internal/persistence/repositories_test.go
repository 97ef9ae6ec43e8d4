package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/testfixtures"
)

func outboxRecord(id, aggregate, eventType string) persistence.OutboxRecord {
	return persistence.OutboxRecord{
		ID:          id,
		AggregateID: aggregate,
		EventType:   eventType,
		Payload:     []byte(`{"id":"` + id + `"}`),
		CreatedAt:   testfixtures.ReferenceTime(),
	}
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)

	admin := testfixtures.NewUserFixture(
		testfixtures.WithUserID("admin"),
		testfixtures.WithUserEmail("Admin@Example.com"),
		testfixtures.WithUserAdmin(true),
	)
	member := testfixtures.NewUserFixture(
		testfixtures.WithUserID("member"),
		testfixtures.WithUserEmail("member@example.com"),
		testfixtures.WithUserDisabled(),
	)
	harness.SeedUsers(t, admin, member)

	t.Run("looks up users by id and case-insensitive email", func(t *testing.T) {
		byID, err := harness.Users.GetUser(ctx, "admin")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !byID.IsAdmin || byID.PasswordHash != admin.PasswordHash {
			t.Fatalf("unexpected user: %+v", byID)
		}

		byEmail, err := harness.Users.GetUserByEmail(ctx, "ADMIN@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != "admin" {
			t.Fatalf("expected admin, got %q", byEmail.ID)
		}
	})

	t.Run("keeps the disabled flag", func(t *testing.T) {
		user, err := harness.Users.GetUser(ctx, "member")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !user.Disabled {
			t.Fatalf("expected disabled user, got %+v", user)
		}
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		dup := testfixtures.NewUserFixture(testfixtures.WithUserEmail("admin@example.com")).Persistence()
		if err := harness.Users.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("lists users by email", func(t *testing.T) {
		users, err := harness.Users.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 || users[0].ID != "admin" || users[1].ID != "member" {
			t.Fatalf("unexpected listing: %+v", users)
		}
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		if _, err := harness.Users.GetUser(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedRooms(t, testfixtures.StandardRooms()...)

	rooms, err := harness.Rooms.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 6 {
		t.Fatalf("expected 6 rooms, got %d", len(rooms))
	}
	for i := 1; i < len(rooms); i++ {
		if rooms[i-1].Floor > rooms[i].Floor {
			t.Fatalf("rooms not ordered by floor: %+v", rooms)
		}
	}

	large, err := harness.Rooms.GetRoom(ctx, "room-3")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if large.Capacity != 20 || len(large.Equipment) != 4 {
		t.Fatalf("unexpected room: %+v", large)
	}

	if err := harness.Rooms.DeleteRoom(ctx, "room-4"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := harness.Rooms.GetRoom(ctx, "room-4"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := harness.Rooms.DeleteRoom(ctx, "room-4"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReservationRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedRooms(t, testfixtures.StandardRooms()...)
	harness.SeedUsers(t, testfixtures.NewUserFixture(testfixtures.WithUserID("user-001")))

	first := testfixtures.NewReservationFixture(
		testfixtures.WithReservationID("res-a"),
		testfixtures.WithReservationWindow("10:00", "11:00"),
	).Persistence()

	conflicts, err := harness.Reservations.InsertIfFree(ctx, first, outboxRecord("evt-1", first.RoomID, "reservation.created"))
	if err != nil {
		t.Fatalf("InsertIfFree failed: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %+v", conflicts)
	}

	t.Run("overlapping bookings are returned and not written", func(t *testing.T) {
		overlap := testfixtures.NewReservationFixture(
			testfixtures.WithReservationID("res-b"),
			testfixtures.WithReservationWindow("10:30", "11:30"),
		).Persistence()
		conflicts, err := harness.Reservations.InsertIfFree(ctx, overlap, outboxRecord("evt-2", overlap.RoomID, "reservation.created"))
		if err != nil {
			t.Fatalf("InsertIfFree failed: %v", err)
		}
		if len(conflicts) != 1 || conflicts[0].ID != "res-a" {
			t.Fatalf("expected res-a conflict, got %+v", conflicts)
		}
		if _, err := harness.Reservations.GetReservation(ctx, "res-b"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("conflicting booking must not be stored, got %v", err)
		}
	})

	t.Run("adjacent bookings do not conflict", func(t *testing.T) {
		adjacent := testfixtures.NewReservationFixture(
			testfixtures.WithReservationID("res-c"),
			testfixtures.WithReservationWindow("11:00", "12:00"),
		).Persistence()
		conflicts, err := harness.Reservations.InsertIfFree(ctx, adjacent, outboxRecord("evt-3", adjacent.RoomID, "reservation.created"))
		if err != nil || len(conflicts) != 0 {
			t.Fatalf("expected adjacent booking to succeed, got conflicts=%v err=%v", conflicts, err)
		}
	})

	t.Run("filters by date and user", func(t *testing.T) {
		byDate, err := harness.Reservations.ListReservations(ctx, persistence.ReservationFilter{Date: testfixtures.ReferenceDate})
		if err != nil {
			t.Fatalf("ListReservations failed: %v", err)
		}
		if len(byDate) != 2 || byDate[0].ID != "res-a" || byDate[1].ID != "res-c" {
			t.Fatalf("unexpected reservations: %+v", byDate)
		}
		other, err := harness.Reservations.ListReservations(ctx, persistence.ReservationFilter{UserID: "someone-else"})
		if err != nil {
			t.Fatalf("ListReservations failed: %v", err)
		}
		if len(other) != 0 {
			t.Fatalf("expected empty listing, got %+v", other)
		}
	})

	t.Run("rooms with bookings cannot be deleted", func(t *testing.T) {
		if err := harness.Rooms.DeleteRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("delete writes a cancellation event", func(t *testing.T) {
		if err := harness.Reservations.DeleteReservation(ctx, "res-c", outboxRecord("evt-4", "room-1", "reservation.cancelled")); err != nil {
			t.Fatalf("DeleteReservation failed: %v", err)
		}
		if err := harness.Reservations.DeleteReservation(ctx, "res-c", outboxRecord("evt-5", "room-1", "reservation.cancelled")); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}

		records, err := harness.Outbox.FetchUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("FetchUnpublished failed: %v", err)
		}
		ids := make([]string, 0, len(records))
		for _, record := range records {
			ids = append(ids, record.ID)
		}
		want := []string{"evt-1", "evt-3", "evt-4"}
		if len(ids) != len(want) {
			t.Fatalf("outbox ids = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("outbox ids = %v, want %v", ids, want)
			}
		}
	})
}

func TestReservationRepository_ConcurrentBookingsCommitOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedRooms(t, testfixtures.StandardRooms()...)

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidate := testfixtures.NewReservationFixture(
				testfixtures.WithReservationRoom("room-2"),
				testfixtures.WithReservationWindow("14:00", "15:00"),
			).Persistence()
			conflicts, err := harness.Reservations.InsertIfFree(ctx, candidate, outboxRecord(candidate.ID+"-evt", "room-2", "reservation.created"))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			if len(conflicts) == 0 {
				committed++
			}
		}(i)
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected errors: %v", failures)
	}
	if committed != 1 {
		t.Fatalf("expected exactly one committed booking, got %d", committed)
	}
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedUsers(t, testfixtures.NewUserFixture(testfixtures.WithUserID("user-001")))

	base := testfixtures.ReferenceTime()
	active := testfixtures.NewSessionFixture(testfixtures.WithSessionToken("active"), testfixtures.WithSessionExpiresAt(base.Add(time.Hour)))
	stale := testfixtures.NewSessionFixture(testfixtures.WithSessionToken("stale"), testfixtures.WithSessionExpiresAt(base.Add(-time.Hour)))
	for _, fixture := range []testfixtures.SessionFixture{active, stale} {
		if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	revokedAt := base.Add(time.Minute)
	revoked, err := harness.Sessions.RevokeSession(ctx, "active", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("unexpected revoked_at: %+v", revoked.RevokedAt)
	}

	if err := harness.Sessions.DeleteExpiredSessions(ctx, base); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := harness.Sessions.GetSession(ctx, "stale"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected stale session to be purged, got %v", err)
	}
	if _, err := harness.Sessions.GetSession(ctx, "active"); err != nil {
		t.Fatalf("expected revoked but unexpired session to remain, got %v", err)
	}
}
