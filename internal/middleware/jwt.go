package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SessionToken returns the raw session token of the request: a Bearer
// Authorization header wins over the session cookie.
func SessionToken(c echo.Context, cookieName string) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}
