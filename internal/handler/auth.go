package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/middleware"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
	"github.com/tanjiaxian99/nusfitness-api/internal/service"
	"github.com/tanjiaxian99/nusfitness-api/internal/utils"
)

// AuthHandler bundles dependencies for the account endpoints.
type AuthHandler struct {
	Accounts   *service.AccountService
	CookieName string
	Secure     bool // production cookies are SameSite=None; Secure
	Log        zerolog.Logger
}

func NewAuthHandler(accounts *service.AccountService, cookieName string, secure bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{Accounts: accounts, CookieName: cookieName, Secure: secure, Log: log}
}

type credentialsReq struct {
	Email    string `json:"email" form:"email" validate:"required|email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Register creates the account with its credit balance and signs the
// caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, tok, err := h.Accounts.Register(ctx, repository.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.setSession(c, tok)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    u,
		"token":   tok.Token,
		"expires": tok.Exp,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := bind(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Accounts.Login(ctx, repository.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	h.setSession(c, tok)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "token": tok.Token, "expires": tok.Exp})
}

// Logout expires the session cookie.  Tokens are stateless, so a token
// held elsewhere stays valid until it expires.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie("", time.Unix(0, 0)))
	return succeed(c)
}

// IsLoggedIn reports whether the request carries a valid session.  A
// linked chat id alone does not count.
func (h *AuthHandler) IsLoggedIn(c echo.Context) error {
	id, found := middleware.IdentityFrom(c)
	return c.JSON(http.StatusOK, echo.Map{"authenticated": found && id.Source == service.SourceSession})
}

func (h *AuthHandler) setSession(c echo.Context, tok utils.SessionToken) {
	c.SetCookie(h.cookie(tok.Token, tok.Exp))
}

func (h *AuthHandler) cookie(value string, exp time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     h.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.Secure {
		ck.Secure = true
		ck.SameSite = http.SameSiteNoneMode
	}
	if value == "" {
		ck.MaxAge = -1
	}
	return ck
}
