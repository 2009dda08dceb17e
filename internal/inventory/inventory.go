package inventory

// SeatInventory is the in-memory working copy of one showtime's seat
// state.  It is loaded from the showtime row, mutated through the
// primitives below and written back while the per-showtime critical
// section is held.  The seat universe is immutable; only the taken set
// and the derived counters change.
type SeatInventory struct {
	ShowtimeID uint64
	seats      []string            // ordered universe, fixed at construction
	universe   map[string]struct{} // membership index over seats
	taken      map[string]struct{} // seats held by active bookings
}

// New builds a SeatInventory from a showtime's persisted fields.
// Duplicate labels in either list are collapsed.  Taken labels outside
// the universe are kept: they represent drift that reconciliation will
// repair, and dropping them silently would hide the problem from
// SnapshotTakenSeats.
func New(showtimeID uint64, seats, taken []string) *SeatInventory {
	inv := &SeatInventory{
		ShowtimeID: showtimeID,
		seats:      make([]string, 0, len(seats)),
		universe:   make(map[string]struct{}, len(seats)),
		taken:      make(map[string]struct{}, len(taken)),
	}
	for _, s := range seats {
		if _, ok := inv.universe[s]; ok {
			continue
		}
		inv.universe[s] = struct{}{}
		inv.seats = append(inv.seats, s)
	}
	for _, s := range taken {
		inv.taken[s] = struct{}{}
	}
	return inv
}

// ValidateRequest checks every requested label against the current
// state.  It returns a SeatNotFoundError for the first label outside
// the seat universe and a SeatTakenError for the first label already
// held.  It performs no mutation.
func (inv *SeatInventory) ValidateRequest(labels []string) error {
	for _, l := range labels {
		if _, ok := inv.universe[l]; !ok {
			return &SeatNotFoundError{Seat: l}
		}
	}
	for _, l := range labels {
		if _, ok := inv.taken[l]; ok {
			return &SeatTakenError{Seat: l}
		}
	}
	return nil
}

// Reserve atomically adds all labels to the taken set.  Validation and
// mutation happen in one step: if any label is invalid or already taken
// no label is added.
func (inv *SeatInventory) Reserve(labels []string) error {
	if err := inv.ValidateRequest(labels); err != nil {
		return err
	}
	for _, l := range labels {
		inv.taken[l] = struct{}{}
	}
	return nil
}

// Release removes the labels from the taken set.  Releasing a seat that
// is not taken is a no-op, which makes release idempotent.
func (inv *SeatInventory) Release(labels []string) {
	for _, l := range labels {
		delete(inv.taken, l)
	}
}

// Overwrite replaces the taken set with the given labels.  It is used
// by reconciliation, where the booking records are the ground truth and
// the cached set is rebuilt wholesale.
func (inv *SeatInventory) Overwrite(labels []string) {
	inv.taken = make(map[string]struct{}, len(labels))
	for _, l := range labels {
		inv.taken[l] = struct{}{}
	}
}

// SnapshotTakenSeats returns the taken seats in seat-universe order.
// Taken labels outside the universe (drift) are appended at the end so
// they stay visible until reconciliation removes them.
func (inv *SeatInventory) SnapshotTakenSeats() []string {
	out := make([]string, 0, len(inv.taken))
	for _, s := range inv.seats {
		if _, ok := inv.taken[s]; ok {
			out = append(out, s)
		}
	}
	if len(out) < len(inv.taken) {
		for l := range inv.taken {
			if _, ok := inv.universe[l]; !ok {
				out = append(out, l)
			}
		}
	}
	return out
}

// AvailableSeatLabels returns the free seats in seat-universe order.
func (inv *SeatInventory) AvailableSeatLabels() []string {
	out := make([]string, 0, len(inv.seats))
	for _, s := range inv.seats {
		if _, ok := inv.taken[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Available returns the derived available-seat count.  Drift labels can
// make the taken set larger than the universe; the count never goes
// below zero.
func (inv *SeatInventory) Available() int {
	n := len(inv.seats) - inv.Booked()
	if n < 0 {
		return 0
	}
	return n
}

// Booked returns the number of taken seats.
func (inv *SeatInventory) Booked() int {
	return len(inv.taken)
}
