package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/telemetry"
)

// OutboxRepository implements persistence.OutboxRepository using SQLite
type OutboxRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewOutboxRepository creates a new SQLite outbox repository
func NewOutboxRepository(pool *ConnectionPool) *OutboxRepository {
	return &OutboxRepository{helper: NewQueryHelper(pool), mapper: NewErrorMapper()}
}

// insertOutbox writes event inside tx. Records without an ID are skipped.
// The trace context of ctx is stored unless event already carries one.
func insertOutbox(ctx context.Context, helper *QueryHelper, tx *sql.Tx, event persistence.OutboxRecord) error {
	if event.ID == "" {
		return nil
	}
	payload := event.Payload
	if payload == nil {
		payload = []byte("{}")
	}
	if event.Traceparent == "" && event.Tracestate == "" {
		event.Traceparent, event.Tracestate = telemetry.TraceContextStrings(ctx)
	}
	_, err := helper.ExecTx(ctx, tx, `
		INSERT INTO outbox (id, aggregate_id, event_type, payload, traceparent, tracestate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, event.ID, event.AggregateID, event.EventType, payload, event.Traceparent, event.Tracestate, formatTime(event.CreatedAt))
	return err
}

// FetchUnpublished returns up to limit unpublished records, oldest first.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]persistence.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.helper.Query(ctx, `
		SELECT id, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.OutboxRecord
	for rows.Next() {
		var (
			record    persistence.OutboxRecord
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.AggregateID, &record.EventType, &record.Payload, &record.Traceparent, &record.Tracestate, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if record.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

// MarkPublished stamps the given records as relayed.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, formatTime(publishedAt))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := r.helper.Exec(ctx, `
		UPDATE outbox SET published_at = ?
		WHERE published_at IS NULL AND id IN (`+placeholders+`)
	`, args...)
	return r.mapper.MapError(err)
}
