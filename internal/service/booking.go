package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/queue"
)

// TicketSelection is one requested seat with its pricing tier, as
// received from the caller.
type TicketSelection struct {
	SeatNumber string `json:"seat_number"`
	TicketType string `json:"ticket_type"`
}

// CreateBooking validates the request, reserves the seats inside the
// showtime's critical section and persists the booking aggregate.  The
// reservation is written before the aggregate; if persisting the
// aggregate fails the reservation is rolled back before the error is
// returned.  A failure can therefore only ever leave a seat looking
// taken, never looking free, and the reconciliation pass clears such
// leftovers.
func (s *BookingService) CreateBooking(ctx context.Context, showtimeID, userID uint64, selections []TicketSelection) (*model.Booking, error) {
	if len(selections) == 0 {
		return nil, &ValidationError{Field: "tickets", Message: "at least one ticket selection is required"}
	}
	seats := make([]string, 0, len(selections))
	types := make([]model.TicketType, 0, len(selections))
	seen := make(map[string]struct{}, len(selections))
	for i, sel := range selections {
		seat := strings.TrimSpace(sel.SeatNumber)
		if seat == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("tickets[%d].seat_number", i), Message: "seat number is required"}
		}
		if _, dup := seen[seat]; dup {
			return nil, &ValidationError{Field: fmt.Sprintf("tickets[%d].seat_number", i), Message: fmt.Sprintf("seat %s selected more than once", seat)}
		}
		tt, err := model.ParseTicketType(sel.TicketType)
		if err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("tickets[%d].ticket_type", i), Message: err.Error()}
		}
		seen[seat] = struct{}{}
		seats = append(seats, seat)
		types = append(types, tt)
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer s.unlockQuietly(unlock, showtimeID)

	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	if err := inv.Reserve(seats); err != nil {
		return nil, err
	}
	if err := s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version); err != nil {
		return nil, err
	}

	b := &model.Booking{
		BookingID:   nextBookingNumber(),
		UserID:      userID,
		ShowtimeID:  st.ID,
		Status:      model.StatusConfirmed,
		BookingDate: time.Now().UTC(),
	}
	var total uint32
	for i, seat := range seats {
		price := types[i].PriceCents(st.BasePriceCents)
		total += price
		b.Tickets = append(b.Tickets, model.Ticket{
			TicketID:   nextTicketNumber(),
			ShowtimeID: st.ID,
			SeatNumber: seat,
			Type:       types[i],
			PriceCents: price,
		})
	}
	b.TotalPriceCents = total

	if err := s.bookings.CreateAggregate(ctx, b); err != nil {
		// Roll the reservation back before surfacing the error; the
		// version moved by one with the reserve write above.
		inv.Release(seats)
		if relErr := s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version+1); relErr != nil {
			s.log.Error("seat release after failed booking persist also failed; inventory drifts until next sync",
				zap.Uint64("showtime_id", st.ID), zap.Strings("seats", seats), zap.Error(relErr))
		}
		return nil, err
	}

	s.cache.Invalidate(ctx, st.ID)
	s.publishConfirmed(b)
	s.log.Info("booking created",
		zap.Uint64("booking_id", b.ID), zap.Uint32("booking_number", b.BookingID),
		zap.Uint64("showtime_id", st.ID), zap.Uint64("user_id", userID), zap.Strings("seats", seats))
	return b, nil
}

// ReserveSeats is the lower-level primitive used by seat-selection UIs
// before a full booking exists.  It marks the seats taken without
// creating a booking; a later reconciliation treats bookings as ground
// truth and will free seats reserved this way if no booking follows.
func (s *BookingService) ReserveSeats(ctx context.Context, showtimeID uint64, seatLabels []string) error {
	if len(seatLabels) == 0 {
		return &ValidationError{Field: "seats", Message: "at least one seat is required"}
	}
	seats := make([]string, 0, len(seatLabels))
	for i, l := range seatLabels {
		l = strings.TrimSpace(l)
		if l == "" {
			return &ValidationError{Field: fmt.Sprintf("seats[%d]", i), Message: "seat label is required"}
		}
		seats = append(seats, l)
	}

	unlock, err := s.locker.Lock(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("acquire showtime lock: %w", err)
	}
	defer s.unlockQuietly(unlock, showtimeID)

	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return err
	}
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	if err := inv.Reserve(seats); err != nil {
		return err
	}
	if err := s.showtimes.UpdateInventory(ctx, st.ID, inv.SnapshotTakenSeats(), inv.Available(), inv.Booked(), st.Version); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, st.ID)
	s.log.Info("seats reserved", zap.Uint64("showtime_id", st.ID), zap.Strings("seats", seats))
	return nil
}

// GetBooking loads a booking aggregate by storage id.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, bookingID)
}

// ListUserBookings returns all bookings of a user, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) publishConfirmed(b *model.Booking) {
	if s.events == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:       b.ID,
		BookingNumber:   b.BookingID,
		UserID:          b.UserID,
		ShowtimeID:      b.ShowtimeID,
		Seats:           b.SeatNumbers(),
		TotalPriceCents: b.TotalPriceCents,
		ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.events.PublishBookingConfirmed(ctx, ev)
	}()
}

func (s *BookingService) publishCancelled(b *model.Booking, deleted bool) {
	if s.events == nil {
		return
	}
	ev := queue.BookingCancelledEvent{
		BookingID:     b.ID,
		BookingNumber: b.BookingID,
		UserID:        b.UserID,
		ShowtimeID:    b.ShowtimeID,
		Seats:         b.SeatNumbers(),
		Deleted:       deleted,
		CancelledAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.events.PublishBookingCancelled(ctx, ev)
	}()
}
