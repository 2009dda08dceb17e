// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/cinetick/booking/internal/handler"
)

// RegisterRoutes wires all endpoints onto the provided Echo instance.
// Authentication is out of scope for this service; an upstream gateway
// is expected to enforce it before requests arrive here.
func RegisterRoutes(e *echo.Echo, bookings *handler.BookingHandler, showtimes *handler.ShowtimeHandler) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// Showtime scheduling and seat queries.
	v1.POST("/showtimes", showtimes.CreateShowtime)
	v1.GET("/showtimes/:id", showtimes.GetShowtime)
	v1.GET("/showtimes/:id/seats/taken", showtimes.TakenSeats)
	v1.GET("/showtimes/:id/seats/available", showtimes.AvailableSeats)
	// Low-level reserve primitive for seat-selection UIs.
	v1.POST("/showtimes/:id/seats/reserve", showtimes.ReserveSeats)
	// Operational repair: rebuild cached seat state from bookings.
	v1.POST("/showtimes/:id/sync", showtimes.SyncInventory)
	v1.GET("/showtimes/:id/stats", showtimes.Statistics)
	v1.GET("/showtimes/:id/bookings", showtimes.ListBookings)

	// Booking aggregate lifecycle.
	v1.POST("/bookings", bookings.CreateBooking)
	v1.GET("/bookings/:id", bookings.GetBooking)
	v1.POST("/bookings/:id/cancel", bookings.CancelBooking)
	v1.POST("/bookings/:id/reactivate", bookings.ReactivateBooking)
	v1.DELETE("/bookings/:id", bookings.DeleteBooking)
	v1.GET("/users/:id/bookings", bookings.ListUserBookings)
}
