package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gookit/validate"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/service"
)

// Validator adapts gookit/validate to echo's Validator interface.
type Validator struct{}

func (Validator) Validate(i any) error {
	v := validate.Struct(i)
	if v.Validate() {
		return nil
	}
	return v.Errors
}

// ChatID accepts a Telegram chat id given as a JSON number, a JSON string
// or a form value.
type ChatID int64

func (id *ChatID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	return id.UnmarshalParam(s)
}

func (id *ChatID) UnmarshalParam(s string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return err
	}
	*id = ChatID(n)
	return nil
}

var _ json.Unmarshaler = (*ChatID)(nil)

func succeed(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func fail(c echo.Context, status int, code string) error {
	return c.JSON(status, echo.Map{"success": false, "error": code})
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "unauthorized")
}

// writeError maps service outcomes to statuses.  Anything unrecognised is
// a store or collaborator failure and is answered with a generic 400.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrEmailExists):
		return fail(c, http.StatusBadRequest, "UserExistsError")
	case errors.Is(err, service.ErrSessionRequired):
		return fail(c, http.StatusBadRequest, "session_required")
	case errors.Is(err, service.ErrSlotFull):
		return fail(c, http.StatusForbidden, "slot_full")
	case errors.Is(err, service.ErrTooLateToCancel):
		return fail(c, http.StatusForbidden, "too_late_to_cancel")
	case errors.Is(err, service.ErrSlotNotFound):
		return fail(c, http.StatusNotFound, "slot_not_found")
	case errors.Is(err, service.ErrNoCreditsLeft):
		return fail(c, http.StatusBadRequest, "no_credits_left")
	case errors.Is(err, service.ErrMenuNotAvailable):
		return fail(c, http.StatusBadRequest, "menu_not_available")
	case errors.Is(err, service.ErrTrafficUnavailable):
		log.Warn().Err(err).Str("path", c.Path()).Msg("traffic unavailable")
		return fail(c, http.StatusBadRequest, "traffic_unavailable")
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return fail(c, http.StatusBadRequest, "store_error")
}
