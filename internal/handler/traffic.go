package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
	"github.com/tanjiaxian99/nusfitness-api/internal/service"
)

type TrafficHandler struct {
	Traffic *service.TrafficService
	Log     zerolog.Logger
}

func NewTrafficHandler(traffic *service.TrafficService, log zerolog.Logger) *TrafficHandler {
	return &TrafficHandler{Traffic: traffic, Log: log}
}

// dateFilter mirrors the comparison operators the web client sends.
type dateFilter struct {
	GTE *time.Time `json:"$gte"`
	GT  *time.Time `json:"$gt"`
	LTE *time.Time `json:"$lte"`
	LT  *time.Time `json:"$lt"`
}

type trafficReq struct {
	Facility int        `json:"facility"`
	Date     dateFilter `json:"date"`
	Day      []int      `json:"day"`
}

// Historical returns the average head count per time of day.
func (h *TrafficHandler) Historical(c echo.Context) error {
	var req trafficReq
	if err := c.Bind(&req); err != nil || req.Facility < 0 {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	tr := repository.TimeRange{GTE: req.Date.GTE, GT: req.Date.GT, LTE: req.Date.LTE, LT: req.Date.LT}
	out, err := h.Traffic.Historical(ctx, req.Facility, tr, req.Day)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Current returns live head counts of every facility.
func (h *TrafficHandler) Current(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()
	counts, err := h.Traffic.Current(ctx)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, counts)
}
