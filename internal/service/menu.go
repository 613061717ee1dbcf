package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
)

// StartMenu resets a chat's history.
const StartMenu = "Start"

// SessionStore is satisfied by repository.ChatSessionRepo.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (model.ChatSession, error)
	Save(ctx context.Context, s model.ChatSession) error
}

// MenuNavigator keeps the bot's back-stack per chat.  The history holds
// each menu at most once: revisiting a menu drops everything after it.
type MenuNavigator struct {
	store SessionStore
}

func NewMenuNavigator(store SessionStore) *MenuNavigator { return &MenuNavigator{store: store} }

// Visit records that chatID is now showing menu.
func (n *MenuNavigator) Visit(ctx context.Context, chatID int64, menu string) error {
	sess, err := n.store.Get(ctx, chatID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		sess = model.ChatSession{ChatID: chatID}
	case err != nil:
		return fmt.Errorf("load session: %w", err)
	}

	menus, changed := nextMenus(sess.Menus, menu)
	if !changed {
		return nil
	}
	sess.Menus = menus
	if err := n.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// nextMenus applies one visit to history.  changed is false when the
// visit is a refresh of the current menu.
func nextMenus(history []string, menu string) (menus []string, changed bool) {
	if len(history) == 0 || menu == StartMenu {
		return []string{menu}, true
	}
	if history[len(history)-1] == menu {
		return history, false
	}
	for i, m := range history {
		if m == menu {
			return append([]string(nil), history[:i+1]...), true
		}
	}
	out := make([]string, len(history), len(history)+1)
	copy(out, history)
	return append(out, menu), true
}

// PreviousMenu returns the menu skips+1 steps back from the current one.
func (n *MenuNavigator) PreviousMenu(ctx context.Context, chatID int64, skips int) (string, error) {
	sess, err := n.store.Get(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrMenuNotAvailable
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if len(sess.Menus) < 2 || skips < 0 {
		return "", ErrMenuNotAvailable
	}
	i := len(sess.Menus) - skips - 1
	if i < 0 {
		return "", ErrMenuNotAvailable
	}
	return sess.Menus[i], nil
}
