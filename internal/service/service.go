// Package service implements the booking core: the orchestration of
// seat reservation and booking persistence, the booking lifecycle state
// machine and the inventory reconciliation pass.  Every seat-state
// mutation for a showtime runs inside that showtime's critical section
// acquired from the ShowtimeLocker, so two racing requests can never
// both observe a seat as free.
package service

import (
	"context"
	"math/rand"

	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/queue"
)

// ShowtimeStore persists showtimes and their cached seat state.
type ShowtimeStore interface {
	Create(ctx context.Context, st *model.Showtime) error
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	// UpdateInventory writes the taken-seat projection and derived
	// counters conditional on the version the caller read.
	UpdateInventory(ctx context.Context, id uint64, taken []string, available, booked int, version uint32) error
}

// BookingStore persists the booking aggregate (booking plus owned tickets).
type BookingStore interface {
	CreateAggregate(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Booking, error)
	ActiveSeatLabels(ctx context.Context, showtimeID uint64) ([]string, error)
	UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error
	Delete(ctx context.Context, id uint64) error
}

// UserDirectory resolves user ids.  Account management is external.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
}

// EventPublisher emits booking lifecycle events after a successful
// mutation.  Publish failures are never surfaced to the API caller.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// BookingService wires the stores, the per-showtime locker, the seat
// cache and the event publisher together.
type BookingService struct {
	showtimes ShowtimeStore
	bookings  BookingStore
	users     UserDirectory
	locker    inventory.ShowtimeLocker
	cache     *inventory.SeatCache
	events    EventPublisher // nil disables event publishing
	log       *zap.Logger
}

// New constructs a BookingService.  events may be nil when no broker is
// configured.
func New(
	showtimes ShowtimeStore,
	bookings BookingStore,
	users UserDirectory,
	locker inventory.ShowtimeLocker,
	cache *inventory.SeatCache,
	events EventPublisher,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		showtimes: showtimes,
		bookings:  bookings,
		users:     users,
		locker:    locker,
		cache:     cache,
		events:    events,
		log:       log,
	}
}

// nextBookingNumber generates a human-facing booking number in
// [100000, 999999].  Uniqueness is not enforced; the primary key is.
func nextBookingNumber() uint32 {
	return uint32(100000 + rand.Intn(900000))
}

// nextTicketNumber generates a human-facing ticket number in [1000, 9999].
func nextTicketNumber() uint32 {
	return uint32(1000 + rand.Intn(9000))
}

// unlockQuietly runs an unlock function and logs a failure instead of
// propagating it; the mutation it guarded has already been decided.
func (s *BookingService) unlockQuietly(unlock func() error, showtimeID uint64) {
	if err := unlock(); err != nil {
		s.log.Warn("release showtime lock failed", zap.Uint64("showtime_id", showtimeID), zap.Error(err))
	}
}
