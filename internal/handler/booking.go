package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
	"github.com/cinetick/booking/internal/service"
)

// BookingHandler exposes the booking aggregate operations over HTTP.
// Authentication and authorization are handled upstream; requests
// arriving here are assumed to be allowed to act on the named user.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

// CreateBooking handles POST /v1/bookings.  The body names the
// showtime, the user and one ticket selection per requested seat.  On
// success it returns 201 with the persisted aggregate; seat conflicts
// return 409 with the offending seat and leave no partial state behind.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body struct {
		ShowtimeID uint64                    `json:"showtime_id"`
		UserID     uint64                    `json:"user_id"`
		Tickets    []service.TicketSelection `json:"tickets"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id is required"})
	}
	if body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	b, err := h.svc.CreateBooking(c.Request().Context(), body.ShowtimeID, body.UserID, body.Tickets)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": b})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.svc.GetBooking(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// ListUserBookings handles GET /v1/users/:id/bookings.
func (h *BookingHandler) ListUserBookings(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	items, err := h.svc.ListUserBookings(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CancelBooking handles POST /v1/bookings/:id/cancel.  Cancelling an
// already cancelled booking is a no-op and returns the booking as is.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.svc.CancelBooking(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// ReactivateBooking handles POST /v1/bookings/:id/reactivate.  The body
// names the target status (PENDING or CONFIRMED).  Reactivation fails
// with 409 when one of the booking's seats was taken in the interim.
func (h *BookingHandler) ReactivateBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	target, err := model.ParseBookingStatus(body.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	b, err := h.svc.ReactivateBooking(c.Request().Context(), id, target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// DeleteBooking handles DELETE /v1/bookings/:id.  Unlike cancellation
// this is irreversible: the tickets and the booking row are removed and
// the seats are released.
func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.svc.DeleteBooking(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// parseID extracts a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// writeError translates service and inventory errors into JSON
// responses.  Seat errors, unknown label and taken seat alike, map to
// 409 and name the offending seat so the caller can render an
// actionable message.
func writeError(c echo.Context, err error) error {
	var vErr *service.ValidationError
	var notFound *inventory.SeatNotFoundError
	var taken *inventory.SeatTakenError
	var transition *service.StateTransitionError
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &notFound):
		return c.JSON(http.StatusConflict, echo.Map{"error": notFound.Error(), "seat": notFound.Seat})
	case errors.As(err, &taken):
		return c.JSON(http.StatusConflict, echo.Map{"error": taken.Error(), "seat": taken.Seat})
	case errors.As(err, &transition):
		return c.JSON(http.StatusConflict, echo.Map{"error": transition.Error()})
	case errors.Is(err, repository.ErrShowtimeNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "concurrent update, please retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
