package sqlite

import (
	"context"
	"testing"
	"time"
)

func TestOutboxRepository_FetchAndMark(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedRoom(t, storage, "room-1")

	for i, window := range [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}, {"11:00", "12:00"}} {
		id := string(rune('a' + i))
		event := outboxFixture("evt-"+id, id, "reservation.created")
		event.CreatedAt = testNow.Add(time.Duration(i) * time.Second)
		if _, err := storage.InsertIfFree(ctx, reservationFixture(id, "room-1", window[0], window[1]), event); err != nil {
			t.Fatalf("InsertIfFree failed: %v", err)
		}
	}

	batch, err := storage.FetchUnpublished(ctx, 2)
	if err != nil {
		t.Fatalf("FetchUnpublished failed: %v", err)
	}
	if len(batch) != 2 || batch[0].ID != "evt-a" || batch[1].ID != "evt-b" {
		t.Fatalf("expected oldest two events, got %+v", batch)
	}
	if string(batch[0].Payload) != `{"id":"a"}` || batch[0].EventType != "reservation.created" {
		t.Fatalf("unexpected record %+v", batch[0])
	}

	if err := storage.MarkPublished(ctx, []string{"evt-a", "evt-b"}, testNow.Add(time.Minute)); err != nil {
		t.Fatalf("MarkPublished failed: %v", err)
	}

	rest, err := storage.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("FetchUnpublished failed: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "evt-c" {
		t.Fatalf("expected only evt-c to remain, got %+v", rest)
	}

	if err := storage.MarkPublished(ctx, nil, testNow); err != nil {
		t.Fatalf("MarkPublished with no ids should be a no-op: %v", err)
	}
}

func TestOutboxRepository_StoresTraceContext(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	seedRoom(t, storage, "room-1")

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	event := outboxFixture("evt-a", "a", "reservation.created")
	event.Traceparent = traceparent
	event.Tracestate = "vendor=1"
	if _, err := storage.InsertIfFree(ctx, reservationFixture("a", "room-1", "09:00", "10:00"), event); err != nil {
		t.Fatalf("InsertIfFree failed: %v", err)
	}
	if _, err := storage.InsertIfFree(ctx, reservationFixture("b", "room-1", "10:00", "11:00"), outboxFixture("evt-b", "b", "reservation.created")); err != nil {
		t.Fatalf("InsertIfFree failed: %v", err)
	}

	records, err := storage.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("FetchUnpublished failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Traceparent != traceparent || records[0].Tracestate != "vendor=1" {
		t.Fatalf("trace context not stored: %+v", records[0])
	}
	if records[1].Traceparent != "" || records[1].Tracestate != "" {
		t.Fatalf("expected empty trace context without a span, got %+v", records[1])
	}
}
