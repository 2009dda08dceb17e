// Package inventory owns the mutable seat state for a single showtime:
// the immutable seat universe, the set of taken seats and the derived
// availability counters.  All mutation primitives are all-or-nothing and
// must be called while holding the showtime's critical section (see
// ShowtimeLocker).
package inventory

import "fmt"

// SeatNotFoundError reports a requested seat label that is not part of
// the showtime's seat universe.
type SeatNotFoundError struct {
	Seat string
}

func (e *SeatNotFoundError) Error() string {
	return fmt.Sprintf("seat %s does not exist for this showtime", e.Seat)
}

// SeatTakenError reports a requested seat that is already held by an
// active booking.
type SeatTakenError struct {
	Seat string
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s is already taken", e.Seat)
}
