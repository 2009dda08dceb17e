package service

import (
	"fmt"

	"github.com/cinetick/booking/internal/model"
)

// ValidationError reports malformed or missing input.  It is detected
// before any mutation and carries the offending field so the calling
// layer can render an actionable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StateTransitionError reports an invalid booking status change.
type StateTransitionError struct {
	From   model.BookingStatus
	To     model.BookingStatus
	Reason string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s: %s", e.From, e.To, e.Reason)
}
