package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
)

// fakeShowtimes is an in-memory ShowtimeStore that enforces the same
// version condition as the SQL implementation.
type fakeShowtimes struct {
	mu     sync.Mutex
	rows   map[uint64]*model.Showtime
	nextID uint64
}

func newFakeShowtimes() *fakeShowtimes {
	return &fakeShowtimes{rows: make(map[uint64]*model.Showtime)}
}

func (f *fakeShowtimes) Create(ctx context.Context, st *model.Showtime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	st.ID = f.nextID
	st.TakenSeats = []string{}
	st.AvailableSeats = len(st.Seats)
	cp := *st
	cp.Seats = append([]string(nil), st.Seats...)
	cp.TakenSeats = []string{}
	f.rows[st.ID] = &cp
	return nil
}

func (f *fakeShowtimes) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrShowtimeNotFound
	}
	cp := *st
	cp.Seats = append([]string(nil), st.Seats...)
	cp.TakenSeats = append([]string(nil), st.TakenSeats...)
	return &cp, nil
}

func (f *fakeShowtimes) UpdateInventory(ctx context.Context, id uint64, taken []string, available, booked int, version uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.rows[id]
	if !ok {
		return repository.ErrShowtimeNotFound
	}
	if st.Version != version {
		return repository.ErrVersionConflict
	}
	st.TakenSeats = append([]string(nil), taken...)
	st.AvailableSeats = available
	st.SeatsBooked = booked
	st.Version++
	return nil
}

// fakeBookings is an in-memory BookingStore.
type fakeBookings struct {
	mu        sync.Mutex
	rows      map[uint64]*model.Booking
	nextID    uint64
	createErr error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{rows: make(map[uint64]*model.Booking)}
}

func (f *fakeBookings) CreateAggregate(ctx context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	b.ID = f.nextID
	for i := range b.Tickets {
		b.Tickets[i].BookingID = b.ID
		b.Tickets[i].ID = b.ID*100 + uint64(i)
	}
	cp := *b
	cp.Tickets = append([]model.Ticket(nil), b.Tickets...)
	f.rows[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	cp.Tickets = append([]model.Ticket(nil), b.Tickets...)
	return &cp, nil
}

func (f *fakeBookings) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return f.filter(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (f *fakeBookings) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Booking, error) {
	return f.filter(func(b *model.Booking) bool { return b.ShowtimeID == showtimeID }), nil
}

func (f *fakeBookings) filter(keep func(*model.Booking) bool) []model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range f.rows {
		if keep(b) {
			cp := *b
			cp.Tickets = append([]model.Ticket(nil), b.Tickets...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeBookings) ActiveSeatLabels(ctx context.Context, showtimeID uint64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]struct{})
	for _, b := range f.rows {
		if b.ShowtimeID != showtimeID || !b.Status.Active() {
			continue
		}
		for _, t := range b.Tickets {
			set[t.SeatNumber] = struct{}{}
		}
	}
	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id uint64, status model.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookings) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeUsers resolves a fixed user set.
type fakeUsers struct {
	rows map[uint64]*model.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

type testEnv struct {
	svc       *BookingService
	showtimes *fakeShowtimes
	bookings  *fakeBookings
	showtime  *model.Showtime
}

const testUserID = 7

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	showtimes := newFakeShowtimes()
	bookings := newFakeBookings()
	users := &fakeUsers{rows: map[uint64]*model.User{
		testUserID: {ID: testUserID, Email: "ada@example.com", FullName: "Ada Byron", IsActive: true},
	}}
	svc := New(showtimes, bookings, users,
		inventory.NewLocalLocker(), inventory.NewSeatCache(nil, 0), nil, zap.NewNop())

	st, err := svc.CreateShowtime(context.Background(), ShowtimeInput{
		MovieTitle:     "Arrival",
		StartsAt:       time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC),
		BasePriceCents: 1000,
		Seats:          []string{"A1", "A2", "A3", "A4", "A5"},
	})
	require.NoError(t, err)
	return &testEnv{svc: svc, showtimes: showtimes, bookings: bookings, showtime: st}
}

func (e *testEnv) takenSeats(t *testing.T) []string {
	t.Helper()
	st, err := e.showtimes.GetByID(context.Background(), e.showtime.ID)
	require.NoError(t, err)
	return st.TakenSeats
}

func TestCreateBooking(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "adult"},
		{SeatNumber: "A2", TicketType: "CHILD"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Len(t, b.Tickets, 2)
	assert.Equal(t, uint32(1700), b.TotalPriceCents)
	assert.Equal(t, uint32(1000), b.Tickets[0].PriceCents)
	assert.Equal(t, uint32(700), b.Tickets[1].PriceCents)

	st, err := e.showtimes.GetByID(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, st.TakenSeats)
	assert.Equal(t, 3, st.AvailableSeats)
	assert.Equal(t, 2, st.SeatsBooked)
	assert.Equal(t, uint32(1), st.Version)
}

func TestCreateBookingSeatTaken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	_, err = e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	var taken *inventory.SeatTakenError
	require.ErrorAs(t, err, &taken)
	assert.Equal(t, "A1", taken.Seat)
	assert.Equal(t, []string{"A1"}, e.takenSeats(t))
}

func TestCreateBookingUnknownSeat(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.CreateBooking(context.Background(), e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "Z9", TicketType: "ADULT"},
	})
	var nf *inventory.SeatNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, e.takenSeats(t))
}

func TestCreateBookingValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		selections []TicketSelection
	}{
		{"empty", nil},
		{"blank seat", []TicketSelection{{SeatNumber: "  ", TicketType: "ADULT"}}},
		{"duplicate seat", []TicketSelection{
			{SeatNumber: "A1", TicketType: "ADULT"},
			{SeatNumber: "A1", TicketType: "CHILD"},
		}},
		{"unknown ticket type", []TicketSelection{{SeatNumber: "A1", TicketType: "STUDENT"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, c.selections)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
	assert.Empty(t, e.takenSeats(t))
}

func TestCreateBookingUnknownUser(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.CreateBooking(context.Background(), e.showtime.ID, 999, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestCreateBookingRollsBackSeatsOnPersistFailure(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	boom := errors.New("db gone")
	e.bookings.createErr = boom

	_, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.ErrorIs(t, err, boom)

	st, err := e.showtimes.GetByID(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Empty(t, st.TakenSeats)
	assert.Equal(t, 5, st.AvailableSeats)
	// Reserve write plus compensating release write.
	assert.Equal(t, uint32(2), st.Version)
}

func TestConcurrentCreateBookingSingleWinner(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
				{SeatNumber: "A3", TicketType: "ADULT"},
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var taken *inventory.SeatTakenError
		require.ErrorAs(t, err, &taken)
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, []string{"A3"}, e.takenSeats(t))
}

func TestCancelReleasesSeats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
		{SeatNumber: "A2", TicketType: "SENIOR"},
	})
	require.NoError(t, err)

	cancelled, err := e.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Empty(t, e.takenSeats(t))

	// Cancelling again is a no-op.
	again, err := e.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)
}

func TestCancelThenReactivateRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	_, err = e.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, e.takenSeats(t))

	re, err := e.svc.ReactivateBooking(ctx, b.ID, model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, re.Status)
	assert.Equal(t, []string{"A1"}, e.takenSeats(t))
}

func TestReactivateFailsWhenSeatReclaimed(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)
	_, err = e.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	// Another booking grabs the freed seat.
	_, err = e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	_, err = e.svc.ReactivateBooking(ctx, b.ID, model.StatusConfirmed)
	var taken *inventory.SeatTakenError
	require.ErrorAs(t, err, &taken)

	// The first booking stays cancelled.
	stored, err := e.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status)
}

func TestReactivateTargetMustBeActive(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	_, err = e.svc.ReactivateBooking(ctx, b.ID, model.StatusCancelled)
	var ste *StateTransitionError
	require.ErrorAs(t, err, &ste)
}

func TestPendingConfirmedTransitionKeepsSeats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	// CONFIRMED -> PENDING -> CONFIRMED moves the status only.
	_, err = e.svc.UpdateBookingStatus(ctx, b.ID, model.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, e.takenSeats(t))

	_, err = e.svc.UpdateBookingStatus(ctx, b.ID, model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, e.takenSeats(t))
}

func TestDeleteBookingFreesSeats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteBooking(ctx, b.ID))
	_, err = e.svc.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.Empty(t, e.takenSeats(t))
}

func TestDeleteCancelledBookingLeavesSeatsAlone(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)
	_, err = e.svc.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	// A second booking now holds A2; deleting the cancelled one must not
	// touch it.
	_, err = e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A2", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	require.NoError(t, e.svc.DeleteBooking(ctx, b.ID))
	assert.Equal(t, []string{"A2"}, e.takenSeats(t))
}

func TestSyncInventoryRepairsDrift(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A2", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	// Corrupt the cached projection: a drift label and a missing seat.
	e.showtimes.mu.Lock()
	row := e.showtimes.rows[e.showtime.ID]
	row.TakenSeats = []string{"A1", "Z9"}
	row.AvailableSeats = 0
	row.SeatsBooked = 2
	e.showtimes.mu.Unlock()

	require.NoError(t, e.svc.SyncInventory(ctx, e.showtime.ID))

	st, err := e.showtimes.GetByID(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, st.TakenSeats)
	assert.Equal(t, 4, st.AvailableSeats)
	assert.Equal(t, 1, st.SeatsBooked)

	// Running it again changes nothing but the version.
	require.NoError(t, e.svc.SyncInventory(ctx, e.showtime.ID))
	st2, err := e.showtimes.GetByID(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, st.TakenSeats, st2.TakenSeats)
	assert.Equal(t, st.AvailableSeats, st2.AvailableSeats)
}

func TestReserveSeatsWithoutBookingIsReclaimedBySync(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, e.svc.ReserveSeats(ctx, e.showtime.ID, []string{"A4"}))
	assert.Equal(t, []string{"A4"}, e.takenSeats(t))

	// No booking backs the reservation, so reconciliation frees it.
	require.NoError(t, e.svc.SyncInventory(ctx, e.showtime.ID))
	assert.Empty(t, e.takenSeats(t))
}

func TestTakenAndAvailableSeats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A2", TicketType: "ADULT"},
		{SeatNumber: "A5", TicketType: "CHILD"},
	})
	require.NoError(t, err)

	taken, err := e.svc.TakenSeats(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A5"}, taken)

	free, err := e.svc.AvailableSeats(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A3", "A4"}, free)
}

func TestStatistics(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	b1, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)
	_, err = e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A2", TicketType: "SENIOR"},
	})
	require.NoError(t, err)
	_, err = e.svc.CancelBooking(ctx, b1.ID)
	require.NoError(t, err)

	stats, err := e.svc.Statistics(ctx, e.showtime.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBookings)
	assert.Equal(t, 1, stats.ConfirmedBookings)
	assert.Equal(t, 1, stats.CancelledBookings)
	assert.Equal(t, 0, stats.PendingBookings)
	assert.Equal(t, 5, stats.TotalSeats)
	assert.Equal(t, 1, stats.TakenSeats)
	assert.Equal(t, []string{"A2"}, stats.TakenSeatNumbers)
}

func TestListUserBookings(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateBooking(ctx, e.showtime.ID, testUserID, []TicketSelection{
		{SeatNumber: "A1", TicketType: "ADULT"},
	})
	require.NoError(t, err)

	list, err := e.svc.ListUserBookings(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = e.svc.ListUserBookings(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestCreateShowtimeValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ShowtimeInput
	}{
		{"missing title", ShowtimeInput{BasePriceCents: 1000, Seats: []string{"A1"}}},
		{"zero price", ShowtimeInput{MovieTitle: "Dune", Seats: []string{"A1"}}},
		{"no seats", ShowtimeInput{MovieTitle: "Dune", BasePriceCents: 1000}},
		{"blank seat", ShowtimeInput{MovieTitle: "Dune", BasePriceCents: 1000, Seats: []string{" "}}},
		{"duplicate seat", ShowtimeInput{MovieTitle: "Dune", BasePriceCents: 1000, Seats: []string{"A1", "A1"}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := e.svc.CreateShowtime(ctx, c.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
}
