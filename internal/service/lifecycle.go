package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
)

// UpdateBookingStatus applies one transition of the booking state
// machine and drives the matching seat-state change:
//
//	PENDING/CONFIRMED -> CANCELLED   releases the booking's seats
//	CANCELLED -> PENDING/CONFIRMED   re-reserves them, failing with a
//	                                 SeatTakenError if any seat was
//	                                 taken in the interim
//	same -> same                     no-op
//	PENDING <-> CONFIRMED            status only, seats unchanged
//
// Failures are ordered so that a partial one can only leave a seat
// looking taken while no active booking holds it, never the reverse;
// the reconciliation pass clears that direction of drift.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uint64, target model.BookingStatus) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == target {
		return b, nil
	}

	switch {
	case b.Status.Active() && target == model.StatusCancelled:
		if err := s.cancelActive(ctx, b); err != nil {
			return nil, err
		}
	case b.Status == model.StatusCancelled && target.Active():
		if err := s.reactivate(ctx, b, target); err != nil {
			return nil, err
		}
	default:
		// PENDING <-> CONFIRMED: both are active, seats stay taken.
		if err := s.bookings.UpdateStatus(ctx, b.ID, target); err != nil {
			return nil, err
		}
	}

	b.Status = target
	s.log.Info("booking status updated",
		zap.Uint64("booking_id", b.ID), zap.String("status", string(target)))
	return b, nil
}

// CancelBooking moves a booking to CANCELLED and releases its seats.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.UpdateBookingStatus(ctx, bookingID, model.StatusCancelled)
}

// ReactivateBooking moves a CANCELLED booking back into an active
// status, re-reserving its seats.  The target must be PENDING or
// CONFIRMED.
func (s *BookingService) ReactivateBooking(ctx context.Context, bookingID uint64, target model.BookingStatus) (*model.Booking, error) {
	if !target.Active() {
		b, err := s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		return nil, &StateTransitionError{From: b.Status, To: target, Reason: "reactivation target must be PENDING or CONFIRMED"}
	}
	return s.UpdateBookingStatus(ctx, bookingID, target)
}

// DeleteBooking irreversibly removes a booking and its tickets and
// releases its seats.  It is safe on an already cancelled booking, whose
// seats are free already.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uint64) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	unlock, err := s.locker.Lock(ctx, b.ShowtimeID)
	if err != nil {
		return fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer s.unlockQuietly(unlock, b.ShowtimeID)

	// Ground truth first: once the aggregate is gone the seats belong
	// to nobody and releasing them is correct even if it has to be
	// retried by a later sync.
	if err := s.bookings.Delete(ctx, b.ID); err != nil {
		return err
	}
	if b.Status.Active() {
		if err := s.releaseSeatsLocked(ctx, b.ShowtimeID, b.SeatNumbers()); err != nil {
			return err
		}
	}
	s.cache.Invalidate(ctx, b.ShowtimeID)
	s.publishCancelled(b, true)
	s.log.Info("booking deleted",
		zap.Uint64("booking_id", b.ID), zap.Uint64("showtime_id", b.ShowtimeID), zap.Strings("seats", b.SeatNumbers()))
	return nil
}

// cancelActive flips an active booking to CANCELLED and then frees its
// seats, all inside the showtime's critical section.
func (s *BookingService) cancelActive(ctx context.Context, b *model.Booking) error {
	unlock, err := s.locker.Lock(ctx, b.ShowtimeID)
	if err != nil {
		return fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer s.unlockQuietly(unlock, b.ShowtimeID)

	if err := s.bookings.UpdateStatus(ctx, b.ID, model.StatusCancelled); err != nil {
		return err
	}
	if err := s.releaseSeatsLocked(ctx, b.ShowtimeID, b.SeatNumbers()); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, b.ShowtimeID)
	s.publishCancelled(b, false)
	return nil
}

// reactivate re-reserves the booking's seats and then flips the status
// back to an active one.  If the status write fails the reservation is
// rolled back so the seats do not stay orphaned.
func (s *BookingService) reactivate(ctx context.Context, b *model.Booking, target model.BookingStatus) error {
	unlock, err := s.locker.Lock(ctx, b.ShowtimeID)
	if err != nil {
		return fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer s.unlockQuietly(unlock, b.ShowtimeID)

	st, err := s.showtimes.GetByID(ctx, b.ShowtimeID)
	if err != nil {
		return err
	}
	seats := b.SeatNumbers()
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	if err := inv.Reserve(seats); err != nil {
		return err
	}
	if err := s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version); err != nil {
		return err
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, target); err != nil {
		inv.Release(seats)
		if relErr := s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version+1); relErr != nil {
			s.log.Error("seat release after failed reactivation also failed; inventory drifts until next sync",
				zap.Uint64("showtime_id", st.ID), zap.Strings("seats", seats), zap.Error(relErr))
		}
		return err
	}
	s.cache.Invalidate(ctx, st.ID)
	return nil
}

// releaseSeatsLocked removes the seats from the showtime's taken set.
// The caller must hold the showtime's critical section.
func (s *BookingService) releaseSeatsLocked(ctx context.Context, showtimeID uint64, seats []string) error {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return err
	}
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	inv.Release(seats)
	return s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version)
}
