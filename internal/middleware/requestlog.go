package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLog tags every request with an id (kept from X-Request-ID when the
// client sends one) and logs one line when it completes.
func RequestLog(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid := c.Request().Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			err := next(c)

			status := responseStatus(c, err)
			ev := log.Info()
			switch {
			case status >= 500:
				ev = log.Error().Err(err)
			case status >= 400:
				ev = log.Warn()
			}
			ev.Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return err
		}
	}
}
