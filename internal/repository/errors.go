// Package repository defines sentinel error values shared across the
// repositories. These let higher layers such as services and handlers
// distinguish failure scenarios with errors.Is instead of inspecting
// driver errors. ErrVersionConflict in particular signals that an
// inventory write lost an optimistic-concurrency race and may be
// retried by the caller.
package repository

import "errors"

// ErrShowtimeNotFound indicates that no showtime exists with the given id.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrBookingNotFound indicates that no booking exists with the given id.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUserNotFound indicates that no user exists with the given id.
var ErrUserNotFound = errors.New("user not found")

// ErrVersionConflict indicates that a conditional inventory update was
// rejected because the showtime row's version changed since it was
// read. Under the per-showtime lock this should not happen; it is the
// second line of defense against double booking.
var ErrVersionConflict = errors.New("showtime version conflict")
