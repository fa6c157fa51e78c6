package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendit/internal/models"
)

const bookingColumns = `id, item_id, booker_id, start_date, end_date, status, created_at, updated_at, version`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.ItemID,
		&b.BookerID,
		&b.Start,
		&b.End,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// HasApprovedOverlap reports whether an APPROVED booking of the item
// intersects the half-open interval [start, end).
func (db *DB) HasApprovedOverlap(ctx context.Context, itemID int64, start, end time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings
              WHERE item_id = ? AND status = ? AND start_date < ? AND end_date > ?`
	var count int
	err := db.QueryRowContext(ctx, query, itemID, models.StatusApproved, end.UTC(), start.UTC()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check approved overlap: %w", err)
	}
	return count > 0, nil
}

// CreateBookingTx re-checks the approved-overlap invariant and inserts the
// booking in one transaction, so two concurrent requests for intersecting
// intervals cannot both pass the check.
func (db *DB) CreateBookingTx(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE item_id = ? AND status = ? AND start_date < ? AND end_date > ?`
	var count int
	err = tx.QueryRowContext(ctx, queryCount,
		booking.ItemID, models.StatusApproved, booking.End.UTC(), booking.Start.UTC()).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("item %d: %w", booking.ItemID, ErrTimeConflict)
	}

	queryInsert := `INSERT INTO bookings (item_id, booker_id, start_date, end_date, status, created_at, updated_at, version)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.ItemID,
		booking.BookerID,
		booking.Start.UTC(),
		booking.End.UTC(),
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking %d: %w", id, ErrBookingNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// DecideBookingTx moves a WAITING booking to the given terminal status. The
// status read, the WAITING check and the write share one transaction; the
// version predicate rejects a decision that raced with another one. An
// approval re-checks the approved-overlap invariant inside the same
// transaction: overlapping WAITING bookings are legal, so without the
// re-check an owner could approve two of them for intersecting intervals.
func (db *DB) DecideBookingTx(ctx context.Context, id int64, status models.BookingStatus) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var itemID int64
	var start, end time.Time
	var current models.BookingStatus
	var version int64
	err = tx.QueryRowContext(ctx,
		`SELECT item_id, start_date, end_date, status, version FROM bookings WHERE id = ?`, id).
		Scan(&itemID, &start, &end, &current, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("booking %d: %w", id, ErrBookingNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read booking status in tx: %w", err)
	}
	if current != models.StatusWaiting {
		return fmt.Errorf("booking %d has status %s: %w", id, current, ErrNotWaiting)
	}

	if status == models.StatusApproved {
		queryCount := `SELECT COUNT(*) FROM bookings
	                   WHERE item_id = ? AND id <> ? AND status = ? AND start_date < ? AND end_date > ?`
		var count int
		err = tx.QueryRowContext(ctx, queryCount,
			itemID, id, models.StatusApproved, end.UTC(), start.UTC()).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check overlap in tx: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("item %d: %w", itemID, ErrTimeConflict)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?`,
		status, time.Now().UTC(), id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status in tx: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("booking %d: %w", id, ErrNotWaiting)
	}

	return tx.Commit()
}

func bookerStateQuery(state models.BookingState) (string, int) {
	base := `SELECT ` + bookingColumns + ` FROM bookings WHERE booker_id = ?`
	return stateQuery(base, "", state)
}

func ownerStateQuery(state models.BookingState) (string, int) {
	base := `SELECT b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status,
                    b.created_at, b.updated_at, b.version
             FROM bookings b JOIN items i ON i.id = b.item_id
             WHERE i.owner_id = ?`
	return stateQuery(base, "b.", state)
}

// stateQuery appends the state condition and ordering to base. The second
// return value is how many "now" arguments the query expects.
func stateQuery(base, prefix string, state models.BookingState) (string, int) {
	nowArgs := 0
	switch state {
	case models.StateCurrent:
		base += ` AND ` + prefix + `start_date <= ? AND ` + prefix + `end_date > ?`
		nowArgs = 2
	case models.StatePast:
		base += ` AND ` + prefix + `end_date < ?`
		nowArgs = 1
	case models.StateFuture:
		base += ` AND ` + prefix + `start_date > ?`
		nowArgs = 1
	case models.StateWaiting:
		base += ` AND ` + prefix + `status = '` + string(models.StatusWaiting) + `'`
	case models.StateRejected:
		base += ` AND ` + prefix + `status = '` + string(models.StatusRejected) + `'`
	}
	base += ` ORDER BY ` + prefix + `start_date DESC, ` + prefix + `id ASC LIMIT ? OFFSET ?`
	return base, nowArgs
}

func (db *DB) listBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByBooker returns the booker's bookings matching state at now, ordered
// by start descending (ties by id ascending), one page per call.
func (db *DB) ListByBooker(ctx context.Context, bookerID int64, state models.BookingState, now time.Time, limit, offset int) ([]*models.Booking, error) {
	query, nowArgs := bookerStateQuery(state)
	args := []any{bookerID}
	for i := 0; i < nowArgs; i++ {
		args = append(args, now.UTC())
	}
	args = append(args, limit, offset)
	return db.listBookings(ctx, query, args...)
}

// ListByOwner returns bookings of all items owned by ownerID, filtered and
// paged the same way as ListByBooker.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64, state models.BookingState, now time.Time, limit, offset int) ([]*models.Booking, error) {
	query, nowArgs := ownerStateQuery(state)
	args := []any{ownerID}
	for i := 0; i < nowArgs; i++ {
		args = append(args, now.UTC())
	}
	args = append(args, limit, offset)
	return db.listBookings(ctx, query, args...)
}

// LastBooking returns the most recently ended booking of the item, skipping
// the viewer's own bookings. Nil when the item has no ended bookings.
func (db *DB) LastBooking(ctx context.Context, itemID, viewerID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE item_id = ? AND booker_id <> ? AND end_date < ?
              ORDER BY end_date DESC LIMIT 1`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, itemID, viewerID, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last booking: %w", err)
	}
	return booking, nil
}

// NextBooking returns the nearest upcoming booking of the item, skipping the
// viewer's own bookings. Nil when none is scheduled.
func (db *DB) NextBooking(ctx context.Context, itemID, viewerID int64, now time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE item_id = ? AND booker_id <> ? AND start_date > ?
              ORDER BY start_date ASC LIMIT 1`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, itemID, viewerID, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next booking: %w", err)
	}
	return booking, nil
}

// ListRange returns bookings intersecting [start, end), ordered by item then
// start date. Used by the export report.
func (db *DB) ListRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE start_date < ? AND end_date > ?
              ORDER BY item_id ASC, start_date ASC`
	return db.listBookings(ctx, query, end.UTC(), start.UTC())
}
