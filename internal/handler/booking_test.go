package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/booking/internal/inventory"
	"github.com/cinetick/booking/internal/model"
	"github.com/cinetick/booking/internal/repository"
	"github.com/cinetick/booking/internal/service"
)

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &service.ValidationError{Field: "tickets", Message: "at least one ticket selection is required"}, http.StatusBadRequest},
		{"unknown seat", &inventory.SeatNotFoundError{Seat: "Z9"}, http.StatusConflict},
		{"taken seat", &inventory.SeatTakenError{Seat: "A1"}, http.StatusConflict},
		{"invalid transition", &service.StateTransitionError{From: model.StatusConfirmed, To: model.StatusCancelled, Reason: "x"}, http.StatusConflict},
		{"showtime missing", repository.ErrShowtimeNotFound, http.StatusNotFound},
		{"booking missing", repository.ErrBookingNotFound, http.StatusNotFound},
		{"user missing", repository.ErrUserNotFound, http.StatusNotFound},
		{"version conflict", repository.ErrVersionConflict, http.StatusConflict},
		{"anything else", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			ctx := e.NewContext(req, rec)

			require.NoError(t, writeError(ctx, c.err))
			assert.Equal(t, c.status, rec.Code)
		})
	}
}

func TestWriteErrorNamesTheSeat(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	require.NoError(t, writeError(ctx, &inventory.SeatTakenError{Seat: "B4"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seat":"B4"`)
}
