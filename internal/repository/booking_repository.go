package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cinetick/booking/internal/model"
)

// BookingRepo provides persistence for the booking aggregate: one
// bookings row plus its owned tickets rows.  A booking and its tickets
// are always written and deleted together inside one transaction so a
// partially created aggregate is never observable.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CreateAggregate inserts the booking and all of its tickets in a
// single transaction.  On success the generated ids are populated on
// the given model; on any failure nothing is persisted.
func (r *BookingRepo) CreateAggregate(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO bookings
		(booking_id, user_id, showtime_id, status, total_price_cents, booking_date)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.BookingID, b.UserID, b.ShowtimeID, string(b.Status), b.TotalPriceCents, b.BookingDate.UTC(),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(b.Tickets) > 0 {
		query := `INSERT INTO tickets (ticket_id, booking_id, showtime_id, seat_number, ticket_type, price_cents) VALUES `
		args := make([]interface{}, 0, len(b.Tickets)*6)
		for i := range b.Tickets {
			t := &b.Tickets[i]
			t.BookingID = b.ID
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, t.TicketID, t.BookingID, t.ShowtimeID, t.SeatNumber, string(t.Type), t.PriceCents)
		}
		tickRes, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		// MySQL returns the id of the first row of a multi-row insert;
		// subsequent rows follow consecutively.
		firstID, err := tickRes.LastInsertId()
		if err != nil {
			return err
		}
		for i := range b.Tickets {
			b.Tickets[i].ID = uint64(firstID) + uint64(i)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads a booking and all of its tickets.  It returns
// ErrBookingNotFound when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, booking_id, user_id, showtime_id, status, total_price_cents,
	                  booking_date, created_at, updated_at
	           FROM bookings WHERE id = ?`
	var b model.Booking
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.BookingID, &b.UserID, &b.ShowtimeID, &status, &b.TotalPriceCents,
		&b.BookingDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	b.Status, err = model.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}
	b.Tickets, err = r.ticketsForBookings(ctx, []uint64{b.ID})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByUser returns all bookings made by the given user, newest first,
// each with its tickets populated.  An empty slice is returned when the
// user has no bookings.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, booking_id, user_id, showtime_id, status, total_price_cents,
	                  booking_date, created_at, updated_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

// ListByShowtime returns all bookings for the given showtime, newest
// first, each with its tickets populated.
func (r *BookingRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Booking, error) {
	const q = `SELECT id, booking_id, user_id, showtime_id, status, total_price_cents,
	                  booking_date, created_at, updated_at
	           FROM bookings WHERE showtime_id = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, showtimeID)
}

func (r *BookingRepo) list(ctx context.Context, query string, arg interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	index := make(map[uint64]int)
	ids := make([]uint64, 0)
	for rows.Next() {
		var b model.Booking
		var status string
		if err := rows.Scan(
			&b.ID, &b.BookingID, &b.UserID, &b.ShowtimeID, &status, &b.TotalPriceCents,
			&b.BookingDate, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		b.Status, err = model.ParseBookingStatus(status)
		if err != nil {
			return nil, err
		}
		b.Tickets = []model.Ticket{}
		index[b.ID] = len(bookings)
		ids = append(ids, b.ID)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return bookings, nil
	}
	tickets, err := r.ticketsForBookings(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if idx, ok := index[t.BookingID]; ok {
			bookings[idx].Tickets = append(bookings[idx].Tickets, t)
		}
	}
	return bookings, nil
}

// ticketsForBookings fetches the tickets of all given bookings in one
// query, ordered by booking then ticket id for deterministic output.
func (r *BookingRepo) ticketsForBookings(ctx context.Context, bookingIDs []uint64) ([]model.Ticket, error) {
	if len(bookingIDs) == 0 {
		return []model.Ticket{}, nil
	}
	placeholders := make([]string, 0, len(bookingIDs))
	args := make([]interface{}, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	query := `SELECT id, ticket_id, booking_id, showtime_id, seat_number, ticket_type, price_cents, created_at
	          FROM tickets WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY booking_id, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		var tt string
		if err := rows.Scan(&t.ID, &t.TicketID, &t.BookingID, &t.ShowtimeID, &t.SeatNumber, &tt, &t.PriceCents, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type, err = model.ParseTicketType(tt)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ActiveSeatLabels returns the distinct seat labels across all tickets
// belonging to PENDING or CONFIRMED bookings of the showtime.  This is
// the ground truth the reconciliation pass rebuilds the cached
// taken-seat projection from.
func (r *BookingRepo) ActiveSeatLabels(ctx context.Context, showtimeID uint64) ([]string, error) {
	const q = `SELECT DISTINCT t.seat_number
	           FROM tickets t
	           JOIN bookings b ON b.id = t.booking_id
	           WHERE b.showtime_id = ? AND b.status IN ('PENDING', 'CONFIRMED')
	           ORDER BY t.seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// UpdateStatus sets a booking's lifecycle status.  It returns
// ErrBookingNotFound when the booking does not exist.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	const q = `UPDATE bookings SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The row may exist with the same status already; distinguish
		// a genuine miss from a same-value update.
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		return err
	}
	return nil
}

// Delete removes a booking and all of its tickets in one transaction.
// It returns ErrBookingNotFound when the booking does not exist.
func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE booking_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
