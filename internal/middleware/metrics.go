package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics(m metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.IncRequestsTotal(route, responseStatus(c, err))
			m.ObserveRequestDuration(route, time.Since(start))
			return err
		}
	}
}

// responseStatus is the status the client will see, including errors that
// echo's error handler has not written yet.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
