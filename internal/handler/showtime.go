package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/booking/internal/service"
)

// ShowtimeHandler exposes showtime scheduling, seat queries, the
// low-level reserve primitive and the reconciliation endpoint.
type ShowtimeHandler struct {
	svc *service.BookingService
}

// NewShowtimeHandler constructs a ShowtimeHandler.
func NewShowtimeHandler(svc *service.BookingService) *ShowtimeHandler {
	if svc == nil {
		panic("nil service passed to NewShowtimeHandler")
	}
	return &ShowtimeHandler{svc: svc}
}

// CreateShowtime handles POST /v1/showtimes.
func (h *ShowtimeHandler) CreateShowtime(c echo.Context) error {
	var body service.ShowtimeInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	st, err := h.svc.CreateShowtime(c.Request().Context(), body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"showtime": st})
}

// GetShowtime handles GET /v1/showtimes/:id.
func (h *ShowtimeHandler) GetShowtime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	st, err := h.svc.GetShowtime(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime": st})
}

// TakenSeats handles GET /v1/showtimes/:id/seats/taken.
func (h *ShowtimeHandler) TakenSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	seats, err := h.svc.TakenSeats(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// AvailableSeats handles GET /v1/showtimes/:id/seats/available.
func (h *ShowtimeHandler) AvailableSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	seats, err := h.svc.AvailableSeats(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// ReserveSeats handles POST /v1/showtimes/:id/seats/reserve, the
// low-level primitive used by seat-selection UIs before a booking
// exists.  Reserved-but-unbooked seats are reclaimed by the next
// reconciliation pass.
func (h *ShowtimeHandler) ReserveSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body struct {
		Seats []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.svc.ReserveSeats(c.Request().Context(), id, body.Seats); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reserved": body.Seats})
}

// SyncInventory handles POST /v1/showtimes/:id/sync, the operational
// repair endpoint.
func (h *ShowtimeHandler) SyncInventory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if err := h.svc.SyncInventory(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Statistics handles GET /v1/showtimes/:id/stats.
func (h *ShowtimeHandler) Statistics(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	stats, err := h.svc.Statistics(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ListBookings handles GET /v1/showtimes/:id/bookings.  The seat state
// is reconciled against the returned bookings before listing.
func (h *ShowtimeHandler) ListBookings(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	items, err := h.svc.ListShowtimeBookings(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
