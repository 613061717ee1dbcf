package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/middleware"
	"github.com/tanjiaxian99/nusfitness-api/internal/service"
)

// BookingHandler serves slot booking, cancellation and the slot queries.
type BookingHandler struct {
	Bookings *service.BookingService
	Log      zerolog.Logger
}

func NewBookingHandler(bookings *service.BookingService, log zerolog.Logger) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Log: log}
}

type slotReq struct {
	ChatID   ChatID    `json:"chatId" form:"chatId"`
	Facility string    `json:"facility" form:"facility" validate:"required"`
	Date     time.Time `json:"date" form:"date"`
}

type slotsReq struct {
	Facility  string     `json:"facility" form:"facility" validate:"required"`
	StartDate time.Time  `json:"startDate" form:"startDate"`
	EndDate   *time.Time `json:"endDate" form:"endDate"`
}

type bookedSlotsReq struct {
	ChatID   ChatID `json:"chatId" form:"chatId"`
	Facility string `json:"facility" form:"facility"`
}

// Book reserves one place in the slot.  Credits are not deducted here.
func (h *BookingHandler) Book(c echo.Context) error {
	return h.slotAction(c, h.Bookings.Book)
}

// Cancel releases one of the caller's bookings for the slot.
func (h *BookingHandler) Cancel(c echo.Context) error {
	return h.slotAction(c, h.Bookings.Cancel)
}

func (h *BookingHandler) slotAction(c echo.Context, act func(context.Context, service.Identity, string, time.Time) error) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return unauthorized(c)
	}
	var req slotReq
	if err := bind(c, &req); err != nil || req.Date.IsZero() {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := act(ctx, id, req.Facility, req.Date); err != nil {
		return writeError(c, h.Log, err)
	}
	return succeed(c)
}

// Slots returns the number of bookings per slot of a facility between
// startDate and endDate (default one day later).
func (h *BookingHandler) Slots(c echo.Context) error {
	var req slotsReq
	if err := bind(c, &req); err != nil || req.StartDate.IsZero() {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	counts, err := h.Bookings.CountByTimeBucket(ctx, req.Facility, req.StartDate, req.EndDate)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, counts)
}

// BookedSlots lists the caller's bookings, newest slot first.
func (h *BookingHandler) BookedSlots(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return unauthorized(c)
	}
	var req bookedSlotsReq
	if err := bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Bookings.ListReservations(ctx, id, req.Facility)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list)
}
