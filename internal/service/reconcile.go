package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
)

// SyncInventory rebuilds a showtime's cached seat state from the ground
// truth: the union of seat labels across tickets of PENDING and
// CONFIRMED bookings.  The cached taken set, available count and booked
// count are overwritten wholesale, which makes the pass idempotent and
// able to repair drift from partial failures or manual data edits.
func (s *BookingService) SyncInventory(ctx context.Context, showtimeID uint64) error {
	unlock, err := s.locker.Lock(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer s.unlockQuietly(unlock, showtimeID)

	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return err
	}
	labels, err := s.bookings.ActiveSeatLabels(ctx, showtimeID)
	if err != nil {
		return err
	}
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	inv.Overwrite(labels)
	if err := s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, showtimeID)
	s.log.Info("inventory synced",
		zap.Uint64("showtime_id", showtimeID), zap.Int("taken", inv.Booked()), zap.Int("available", inv.Available()))
	return nil
}

// ListShowtimeBookings returns all bookings of a showtime, running a
// reconciliation pass first so the returned seat state is consistent
// with the listed bookings.
func (s *BookingService) ListShowtimeBookings(ctx context.Context, showtimeID uint64) ([]model.Booking, error) {
	if err := s.SyncInventory(ctx, showtimeID); err != nil {
		return nil, err
	}
	return s.bookings.ListByShowtime(ctx, showtimeID)
}

// ShowtimeStatistics summarizes a showtime's bookings and seat usage.
type ShowtimeStatistics struct {
	ShowtimeID        uint64   `json:"showtime_id"`
	TotalBookings     int      `json:"total_bookings"`
	ConfirmedBookings int      `json:"confirmed_bookings"`
	PendingBookings   int      `json:"pending_bookings"`
	CancelledBookings int      `json:"cancelled_bookings"`
	TotalSeats        int      `json:"total_seats"`
	TakenSeats        int      `json:"taken_seats"`
	AvailableSeats    int      `json:"available_seats"`
	TakenSeatNumbers  []string `json:"taken_seat_numbers"`
}

// Statistics returns booking counts by status and the current seat
// usage for a showtime.
func (s *BookingService) Statistics(ctx context.Context, showtimeID uint64) (*ShowtimeStatistics, error) {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	stats := &ShowtimeStatistics{
		ShowtimeID:       st.ID,
		TotalBookings:    len(bookings),
		TotalSeats:       len(st.Seats),
		TakenSeats:       len(st.TakenSeats),
		AvailableSeats:   st.AvailableSeats,
		TakenSeatNumbers: st.TakenSeats,
	}
	for _, b := range bookings {
		switch b.Status {
		case model.StatusConfirmed:
			stats.ConfirmedBookings++
		case model.StatusPending:
			stats.PendingBookings++
		case model.StatusCancelled:
			stats.CancelledBookings++
		}
	}
	return stats, nil
}
