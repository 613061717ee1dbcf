package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
	"github.com/tanjiaxian99/nusfitness-api/internal/utils"
)

// Source tells how a request's identity was established.
type Source int

const (
	SourceSession Source = iota + 1
	SourceChat
)

func (s Source) String() string {
	switch s {
	case SourceSession:
		return "session"
	case SourceChat:
		return "chat"
	}
	return "none"
}

// Identity is the account a request acts for.  Every downstream record
// keys on Email; ChatID is set only when the chat path was used.
type Identity struct {
	Source Source
	Email  string
	ChatID int64
}

// ChatUserLookup finds the account a chat is linked to.
type ChatUserLookup interface {
	GetByChatID(ctx context.Context, chatID int64) (model.User, error)
}

type IdentityResolver struct {
	secret string
	users  ChatUserLookup
}

func NewIdentityResolver(secret string, users ChatUserLookup) *IdentityResolver {
	return &IdentityResolver{secret: secret, users: users}
}

// Resolve prefers a valid session token and otherwise falls back to the
// account linked to chatID.  A zero chatID means none was supplied.
func (r *IdentityResolver) Resolve(ctx context.Context, token string, chatID int64) (Identity, error) {
	if token != "" {
		if email, err := utils.ParseSessionToken(r.secret, token); err == nil {
			return Identity{Source: SourceSession, Email: email}, nil
		}
	}
	if chatID == 0 {
		return Identity{}, ErrUnauthorized
	}
	u, err := r.users.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, fmt.Errorf("resolve chat %d: %w", chatID, err)
	}
	return Identity{Source: SourceChat, Email: u.Email, ChatID: chatID}, nil
}

// SessionEmail validates a token without consulting the store.
func (r *IdentityResolver) SessionEmail(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	email, err := utils.ParseSessionToken(r.secret, token)
	return email, err == nil
}
