package model

import "time"

// Showtime represents a single scheduled screening with its own seat
// universe and pricing.  Seats is the full, immutable list of sellable
// seat labels for this screening; TakenSeats is the cached projection
// of seats held by active bookings.  AvailableSeats and SeatsBooked are
// derived counters kept in sync with TakenSeats.
//
// Fields:
//  ID             – primary key identifier.
//  MovieTitle     – title of the movie being screened.
//  StartsAt       – when the screening begins.
//  BasePriceCents – base ticket price in cents before the ticket-type
//                   multiplier is applied.
//  Seats          – ordered seat universe (e.g. "A1".."J10").
//  TakenSeats     – subset of Seats currently held by active bookings.
//  AvailableSeats – derived; always len(Seats) - len(TakenSeats).
//  SeatsBooked    – derived; always len(TakenSeats).
//  Version        – optimistic-concurrency counter for inventory writes.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Showtime struct {
	ID             uint64    `json:"id"`
	MovieTitle     string    `json:"movie_title"`
	StartsAt       time.Time `json:"starts_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	Seats          []string  `json:"seats"`
	TakenSeats     []string  `json:"taken_seats"`
	AvailableSeats int       `json:"available_seats"`
	SeatsBooked    int       `json:"seats_booked"`
	Version        uint32    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
