package repository // repository for showtime persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cinetick/booking/internal/model"
)

// ShowtimeRepo manages persistence for showtimes.  The seat universe
// and the taken-seat projection are stored as JSON arrays of seat
// labels in the `seats` and `taken_seats` columns; the derived
// counters and the optimistic-concurrency version live alongside them.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo returns a new ShowtimeRepo bound to the given database.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

// Create inserts a new showtime.  The caller provides the seat
// universe and base price; the taken set starts empty and
// available_seats is initialised to the universe size.  The generated
// ID is populated on the given model.
func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) error {
	seatsJSON, err := json.Marshal(st.Seats)
	if err != nil {
		return fmt.Errorf("marshal seats: %w", err)
	}
	takenJSON, err := json.Marshal([]string{})
	if err != nil {
		return fmt.Errorf("marshal taken seats: %w", err)
	}
	const q = `INSERT INTO showtimes
		(movie_title, starts_at, base_price_cents, seats, taken_seats, available_seats, seats_booked, version)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0)`
	res, err := r.db.ExecContext(ctx, q,
		st.MovieTitle, st.StartsAt.UTC(), st.BasePriceCents,
		seatsJSON, takenJSON, len(st.Seats),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	st.TakenSeats = []string{}
	st.AvailableSeats = len(st.Seats)
	st.SeatsBooked = 0
	st.Version = 0
	return nil
}

// GetByID loads a showtime by primary key.  It returns
// ErrShowtimeNotFound when no row exists.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_title, starts_at, base_price_cents, seats, taken_seats,
	                  available_seats, seats_booked, version, created_at, updated_at
	           FROM showtimes WHERE id = ?`
	var st model.Showtime
	var seatsJSON, takenJSON []byte
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.MovieTitle, &st.StartsAt, &st.BasePriceCents,
		&seatsJSON, &takenJSON,
		&st.AvailableSeats, &st.SeatsBooked, &st.Version,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(seatsJSON, &st.Seats); err != nil {
		return nil, fmt.Errorf("unmarshal seats: %w", err)
	}
	if err := json.Unmarshal(takenJSON, &st.TakenSeats); err != nil {
		return nil, fmt.Errorf("unmarshal taken seats: %w", err)
	}
	return &st, nil
}

// UpdateInventory writes a new taken-seat projection and its derived
// counters, conditional on the version read by the caller.  The version
// is incremented on success.  When the condition fails (another writer
// got there first) it returns ErrVersionConflict and writes nothing.
func (r *ShowtimeRepo) UpdateInventory(ctx context.Context, id uint64, taken []string, available, booked int, version uint32) error {
	takenJSON, err := json.Marshal(taken)
	if err != nil {
		return fmt.Errorf("marshal taken seats: %w", err)
	}
	const q = `UPDATE showtimes
	           SET taken_seats = ?, available_seats = ?, seats_booked = ?, version = version + 1
	           WHERE id = ? AND version = ?`
	res, err := r.db.ExecContext(ctx, q, takenJSON, available, booked, id, version)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}
