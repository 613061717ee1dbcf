package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/middleware"
	"github.com/tanjiaxian99/nusfitness-api/internal/service"
)

// TelegramHandler serves the bot: chat linking and menu history.
type TelegramHandler struct {
	Accounts *service.AccountService
	Menus    *service.MenuNavigator
	Log      zerolog.Logger
}

func NewTelegramHandler(accounts *service.AccountService, menus *service.MenuNavigator, log zerolog.Logger) *TelegramHandler {
	return &TelegramHandler{Accounts: accounts, Menus: menus, Log: log}
}

type linkChatReq struct {
	ChatID ChatID `json:"chatId" form:"chatId"`
	Name   string `json:"name" form:"name"`
}

type chatReq struct {
	ChatID ChatID `json:"chatId" form:"chatId"`
}

type updateMenusReq struct {
	ChatID      ChatID `json:"chatId" form:"chatId"`
	CurrentMenu string `json:"currentMenu" form:"currentMenu" validate:"required"`
}

type previousMenuReq struct {
	ChatID ChatID `json:"chatId" form:"chatId"`
	Skips  int    `json:"skips" form:"skips"`
}

// Login links the chat to the signed-in account.  It is called from the
// web page the bot sends the user to, so a session is required.
func (h *TelegramHandler) Login(c echo.Context) error {
	var req linkChatReq
	if err := bind(c, &req); err != nil || req.ChatID == 0 {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	id, found := middleware.IdentityFrom(c)
	if !found {
		return fail(c, http.StatusBadRequest, "session_required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Accounts.LinkChat(ctx, id, int64(req.ChatID), req.Name); err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return fail(c, http.StatusBadRequest, "session_required")
		}
		return writeError(c, h.Log, err)
	}
	return succeed(c)
}

// IsLoggedIn answers 200 when the chat is linked to an account, else 400.
func (h *TelegramHandler) IsLoggedIn(c echo.Context) error {
	var req chatReq
	if err := bind(c, &req); err != nil || req.ChatID == 0 {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	linked, err := h.Accounts.IsChatLinked(ctx, int64(req.ChatID))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	if !linked {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false})
	}
	return succeed(c)
}

func (h *TelegramHandler) UpdateMenus(c echo.Context) error {
	var req updateMenusReq
	if err := bind(c, &req); err != nil || req.ChatID == 0 {
		return fail(c, http.StatusBadRequest, "invalid_request")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Menus.Visit(ctx, int64(req.ChatID), req.CurrentMenu); err != nil {
		return writeError(c, h.Log, err)
	}
	return succeed(c)
}

// GetPreviousMenu answers {previousMenu} or, on any failure,
// 400 {previousMenu: null}.
func (h *TelegramHandler) GetPreviousMenu(c echo.Context) error {
	var req previousMenuReq
	if err := bind(c, &req); err != nil || req.ChatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"previousMenu": nil})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	menu, err := h.Menus.PreviousMenu(ctx, int64(req.ChatID), req.Skips)
	if err != nil {
		if !errors.Is(err, service.ErrMenuNotAvailable) {
			h.Log.Error().Err(err).Int64("chat_id", int64(req.ChatID)).Msg("previous menu")
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"previousMenu": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"previousMenu": menu})
}
