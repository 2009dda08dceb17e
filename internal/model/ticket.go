package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TicketType is a closed enumeration of the ticket pricing tiers.  The
// string values match the DB enum and the wire format.  Unknown values
// are rejected at the boundary by ParseTicketType rather than being
// defaulted.
type TicketType string

const (
	TicketAdult  TicketType = "ADULT"
	TicketSenior TicketType = "SENIOR"
	TicketChild  TicketType = "CHILD"
)

// ParseTicketType converts a wire string into a TicketType.  Leading and
// trailing whitespace is ignored and matching is case-insensitive, but
// any value outside the closed set is an error.
func ParseTicketType(s string) (TicketType, error) {
	switch TicketType(strings.ToUpper(strings.TrimSpace(s))) {
	case TicketAdult:
		return TicketAdult, nil
	case TicketSenior:
		return TicketSenior, nil
	case TicketChild:
		return TicketChild, nil
	default:
		return "", fmt.Errorf("unknown ticket type %q", s)
	}
}

// Multiplier returns the price multiplier for the ticket type.
func (t TicketType) Multiplier() float64 {
	switch t {
	case TicketSenior:
		return 0.8
	case TicketChild:
		return 0.7
	default:
		return 1.0
	}
}

// PriceCents computes the per-ticket price from a showtime's base price,
// rounded to the nearest cent.
func (t TicketType) PriceCents(baseCents uint32) uint32 {
	return uint32(math.Round(float64(baseCents) * t.Multiplier()))
}

// Ticket is a single seat-and-price record owned by exactly one booking.
// The booking and showtime references are lookup-only back-references.
//
// Fields:
//  ID         – primary key identifier.
//  TicketID   – human-facing numeric ticket identifier.
//  BookingID  – booking that owns this ticket.
//  ShowtimeID – showtime the seat belongs to.
//  SeatNumber – seat label; always a member of the showtime's universe.
//  Type       – pricing tier.
//  PriceCents – base price × multiplier, in cents.
//  CreatedAt  – creation timestamp.
type Ticket struct {
	ID         uint64     `json:"id"`
	TicketID   uint32     `json:"ticket_id"`
	BookingID  uint64     `json:"booking_id"`
	ShowtimeID uint64     `json:"showtime_id"`
	SeatNumber string     `json:"seat_number"`
	Type       TicketType `json:"ticket_type"`
	PriceCents uint32     `json:"price_cents"`
	CreatedAt  time.Time  `json:"created_at"`
}
