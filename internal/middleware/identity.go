package middleware

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/tanjiaxian99/nusfitness-api/internal/service"
)

const identityKey = "identity"

// Resolver is satisfied by service.IdentityResolver.
type Resolver interface {
	Resolve(ctx context.Context, token string, chatID int64) (service.Identity, error)
}

// ResolveIdentity resolves the caller once per request and stores the
// result in the context.  Requests that resolve to nobody pass through
// unchanged and handlers that need an identity answer 401 themselves.
func ResolveIdentity(r Resolver, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := SessionToken(c, cookieName)
			chatID := requestChatID(c)
			if token == "" && chatID == 0 {
				return next(c)
			}
			id, err := r.Resolve(c.Request().Context(), token, chatID)
			if err == nil {
				c.Set(identityKey, id)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by ResolveIdentity.
func IdentityFrom(c echo.Context) (service.Identity, bool) {
	id, ok := c.Get(identityKey).(service.Identity)
	return id, ok
}

// requestChatID finds chatId in the JSON or form body, then the query
// string.  Numbers and numeric strings are both accepted.
func requestChatID(c echo.Context) int64 {
	if body, err := peekBody(c, 1<<20); err == nil && len(body) > 0 {
		ct := c.Request().Header.Get(echo.HeaderContentType)
		switch {
		case strings.HasPrefix(ct, echo.MIMEApplicationForm):
			if v, err := url.ParseQuery(string(body)); err == nil {
				if id := parseChatID(v.Get("chatId")); id != 0 {
					return id
				}
			}
		default:
			var payload struct {
				ChatID any `json:"chatId"`
			}
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			if dec.Decode(&payload) == nil {
				if id := chatIDValue(payload.ChatID); id != 0 {
					return id
				}
			}
		}
	}
	return parseChatID(c.QueryParam("chatId"))
}

func chatIDValue(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		return parseChatID(t.String())
	case string:
		return parseChatID(t)
	case float64:
		return int64(t)
	}
	return 0
}

func parseChatID(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
