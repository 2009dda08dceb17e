package model

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is a closed enumeration of the booking lifecycle states.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// ParseBookingStatus converts a wire string into a BookingStatus,
// rejecting anything outside the closed set.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("unknown booking status %q", s)
	}
}

// Active reports whether a booking in this status holds its seats.
// PENDING and CONFIRMED bookings count toward the taken-seat set;
// CANCELLED bookings do not.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is the aggregate root for one purchase transaction.  It owns
// one or more tickets; tickets are created and destroyed with the
// booking and never exist on their own.
//
// Fields:
//  ID              – primary key identifier.
//  BookingID       – human-facing numeric booking identifier.
//  UserID          – user who made the booking (lookup-only reference).
//  ShowtimeID      – showtime being booked (lookup-only reference).
//  Status          – lifecycle state (PENDING, CONFIRMED, CANCELLED).
//  Tickets         – owned tickets, one per reserved seat.
//  TotalPriceCents – sum of the owned tickets' prices.
//  BookingDate     – set at creation, immutable afterwards.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64        `json:"id"`
	BookingID       uint32        `json:"booking_id"`
	UserID          uint64        `json:"user_id"`
	ShowtimeID      uint64        `json:"showtime_id"`
	Status          BookingStatus `json:"status"`
	Tickets         []Ticket      `json:"tickets"`
	TotalPriceCents uint32        `json:"total_price_cents"`
	BookingDate     time.Time     `json:"booking_date"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// SeatNumbers returns the seat labels of all owned tickets in ticket order.
func (b *Booking) SeatNumbers() []string {
	seats := make([]string, 0, len(b.Tickets))
	for _, t := range b.Tickets {
		seats = append(seats, t.SeatNumber)
	}
	return seats
}
