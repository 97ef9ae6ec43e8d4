package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/room-booking/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using SQLite
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewReservationRepository creates a new SQLite reservation repository
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

const reservationColumns = `id, room_id, user_id, date, start_time, end_time, attendees, equipment, created_at`

// InsertIfFree runs the overlap check and the insert in one write transaction
// so that two requests for the same window cannot both succeed, even across
// processes sharing the database file. Times are zero padded HH:MM, so the
// half-open overlap test start < newEnd AND end > newStart is a text comparison.
func (r *ReservationRepository) InsertIfFree(ctx context.Context, reservation persistence.Reservation, event persistence.OutboxRecord) ([]persistence.Reservation, error) {
	if err := validateReservation(reservation); err != nil {
		return nil, err
	}

	var conflicts []persistence.Reservation
	err := r.retry.WithRetry(ctx, func() error {
		conflicts = nil
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			rows, err := r.helper.QueryTx(ctx, tx, `
				SELECT `+reservationColumns+`
				FROM reservations
				WHERE room_id = ? AND date = ? AND start_time < ? AND end_time > ?
				ORDER BY start_time ASC, id ASC
			`, reservation.RoomID, reservation.Date, reservation.End, reservation.Start)
			if err != nil {
				return err
			}
			found, err := r.scanReservations(rows)
			if err != nil {
				return err
			}
			if len(found) > 0 {
				conflicts = found
				return nil
			}

			if _, err := r.helper.ExecTx(ctx, tx, `
				INSERT INTO reservations (`+reservationColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				reservation.ID,
				reservation.RoomID,
				reservation.UserID,
				reservation.Date,
				reservation.Start,
				reservation.End,
				reservation.Attendees,
				joinCodes(reservation.Equipment),
				formatTime(reservation.CreatedAt),
			); err != nil {
				return err
			}
			return insertOutbox(ctx, r.helper, tx, event)
		})
	})
	if err != nil {
		return nil, err
	}
	return conflicts, nil
}

// GetReservation retrieves a reservation by ID
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	reservation, err := r.scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Reservation{}, persistence.ErrNotFound
		}
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// ListReservations returns reservations matching filter ordered by date,
// start time, room and ID.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Date != "" {
		clauses = append(clauses, "date = ?")
		args = append(args, filter.Date)
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY date ASC, start_time ASC, room_id ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	reservations, err := r.scanReservations(rows)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

// DeleteReservation removes a reservation and records event in the same transaction.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string, event persistence.OutboxRecord) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := r.helper.ExecTx(ctx, tx, `DELETE FROM reservations WHERE id = ?`, id)
			if err != nil {
				return err
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if affected == 0 {
				return persistence.ErrNotFound
			}
			return insertOutbox(ctx, r.helper, tx, event)
		})
	})
}

func (r *ReservationRepository) scanReservations(rows *sql.Rows) ([]persistence.Reservation, error) {
	defer rows.Close()

	var out []persistence.Reservation
	for rows.Next() {
		reservation, err := r.scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reservation)
	}
	return out, rows.Err()
}

func (r *ReservationRepository) scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation persistence.Reservation
		equipment   string
		createdAt   string
	)
	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.UserID,
		&reservation.Date,
		&reservation.Start,
		&reservation.End,
		&reservation.Attendees,
		&equipment,
		&createdAt,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Equipment = splitCodes(equipment)
	if reservation.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

func validateReservation(reservation persistence.Reservation) error {
	switch {
	case reservation.ID == "", reservation.RoomID == "", reservation.UserID == "", reservation.Date == "":
		return persistence.ErrConstraintViolation
	case len(reservation.Start) != 5 || len(reservation.End) != 5:
		return fmt.Errorf("%w: times must be zero padded HH:MM", persistence.ErrConstraintViolation)
	case reservation.End <= reservation.Start:
		return fmt.Errorf("%w: end must be after start", persistence.ErrConstraintViolation)
	case reservation.Attendees <= 0:
		return persistence.ErrConstraintViolation
	}
	return nil
}
