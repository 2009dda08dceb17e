package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
)

// ShowtimeInput carries the fields needed to schedule a new showtime.
type ShowtimeInput struct {
	MovieTitle     string    `json:"movie_title"`
	StartsAt       time.Time `json:"starts_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	Seats          []string  `json:"seats"`
}

// CreateShowtime schedules a screening with its immutable seat universe
// and base price.  The taken set starts empty and the available count
// equals the universe size.
func (s *BookingService) CreateShowtime(ctx context.Context, in ShowtimeInput) (*model.Showtime, error) {
	if strings.TrimSpace(in.MovieTitle) == "" {
		return nil, &ValidationError{Field: "movie_title", Message: "movie title is required"}
	}
	if in.BasePriceCents == 0 {
		return nil, &ValidationError{Field: "base_price_cents", Message: "base price must be positive"}
	}
	if len(in.Seats) == 0 {
		return nil, &ValidationError{Field: "seats", Message: "at least one seat is required"}
	}
	seats := make([]string, 0, len(in.Seats))
	seen := make(map[string]struct{}, len(in.Seats))
	for _, l := range in.Seats {
		l = strings.TrimSpace(l)
		if l == "" {
			return nil, &ValidationError{Field: "seats", Message: "seat labels must not be blank"}
		}
		if _, dup := seen[l]; dup {
			return nil, &ValidationError{Field: "seats", Message: "seat label " + l + " appears more than once"}
		}
		seen[l] = struct{}{}
		seats = append(seats, l)
	}

	st := &model.Showtime{
		MovieTitle:     strings.TrimSpace(in.MovieTitle),
		StartsAt:       in.StartsAt.UTC(),
		BasePriceCents: in.BasePriceCents,
		Seats:          seats,
	}
	if err := s.showtimes.Create(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info("showtime created",
		zap.Uint64("showtime_id", st.ID), zap.String("movie_title", st.MovieTitle), zap.Int("seats", len(seats)))
	return st, nil
}

// GetShowtime loads a showtime with its current seat state.
func (s *BookingService) GetShowtime(ctx context.Context, showtimeID uint64) (*model.Showtime, error) {
	return s.showtimes.GetByID(ctx, showtimeID)
}

// TakenSeats returns the showtime's taken-seat snapshot, served from
// the Redis projection when present.
func (s *BookingService) TakenSeats(ctx context.Context, showtimeID uint64) ([]string, error) {
	if seats, ok := s.cache.Get(ctx, showtimeID); ok {
		return seats, nil
	}
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	seats := inv.SnapshotTakenSeats()
	s.cache.Set(ctx, showtimeID, seats)
	return seats, nil
}

// AvailableSeats returns the free seat labels in seat-universe order.
func (s *BookingService) AvailableSeats(ctx context.Context, showtimeID uint64) ([]string, error) {
	st, err := s.showtimes.GetByID(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	inv := inventory.New(st.ID, st.Seats, st.TakenSeats)
	return inv.AvailableSeatLabels(), nil
}
