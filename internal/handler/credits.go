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

type CreditHandler struct {
	Credits *service.CreditService
	Log     zerolog.Logger
}

func NewCreditHandler(credits *service.CreditService, log zerolog.Logger) *CreditHandler {
	return &CreditHandler{Credits: credits, Log: log}
}

// CreditsLeft returns the caller's balance.
func (h *CreditHandler) CreditsLeft(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	n, err := h.Credits.Remaining(ctx, id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"credits": n})
}

// UpdateCredits spends one credit.
func (h *CreditHandler) UpdateCredits(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	if !found {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Credits.Consume(ctx, id); err != nil {
		return writeError(c, h.Log, err)
	}
	return succeed(c)
}
