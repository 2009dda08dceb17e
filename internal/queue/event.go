// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names for the booking lifecycle events.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingConfirmedEvent is published after a booking has been committed
// together with its seat reservation.  It carries enough information
// for downstream consumers to log, notify or reconcile without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64   `json:"booking_id"`
	BookingNumber   uint32   `json:"booking_number"`
	UserID          uint64   `json:"user_id"`
	ShowtimeID      uint64   `json:"showtime_id"`
	Seats           []string `json:"seats"`
	TotalPriceCents uint32   `json:"total_price_cents"`
	ConfirmedAt     string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a booking left the active
// set (cancelled or deleted) and its seats were released.
type BookingCancelledEvent struct {
	BookingID     uint64   `json:"booking_id"`
	BookingNumber uint32   `json:"booking_number"`
	UserID        uint64   `json:"user_id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	Seats         []string `json:"seats"`
	Deleted       bool     `json:"deleted"`
	CancelledAt   string   `json:"cancelled_at"`
}
