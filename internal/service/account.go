package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/queue"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
	"github.com/tanjiaxian99/nusfitness-api/internal/utils"
)

// UserStore is satisfied by repository.UserRepo.
type UserStore interface {
	Register(ctx context.Context, email, passwordHash string, credits int) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByChatID(ctx context.Context, chatID int64) (model.User, error)
	LinkChat(ctx context.Context, email string, chatID int64, name string) error
}

// AccountService registers accounts, issues session tokens and links bot
// chats to accounts.
type AccountService struct {
	users    UserStore
	hasher   utils.Hasher
	secret   string
	tokenTTL time.Duration
	credits  int
	events   Publisher
	log      zerolog.Logger
}

type AccountOptions struct {
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	DefaultCredits int
}

func NewAccountService(users UserStore, opts AccountOptions, events Publisher, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:    users,
		hasher:   utils.NewHasher(opts.BcryptCost),
		secret:   opts.JWTSecret,
		tokenTTL: opts.TokenTTL,
		credits:  opts.DefaultCredits,
		events:   events,
		log:      log.With().Str("component", "accounts").Logger(),
	}
}

// Register creates the account with a full credit balance and signs the
// caller in.
func (s *AccountService) Register(ctx context.Context, email, password string) (model.User, utils.SessionToken, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Register(ctx, email, hash, s.credits)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, utils.SessionToken{}, ErrEmailExists
		}
		return model.User{}, utils.SessionToken{}, fmt.Errorf("create user: %w", err)
	}
	tok, err := utils.NewSessionToken(s.secret, u.Email, s.tokenTTL)
	if err != nil {
		return model.User{}, utils.SessionToken{}, err
	}
	return u, tok, nil
}

// Login checks the password and issues a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (utils.SessionToken, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.SessionToken{}, ErrInvalidCredentials
		}
		return utils.SessionToken{}, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return utils.SessionToken{}, ErrInvalidCredentials
	}
	return utils.NewSessionToken(s.secret, u.Email, s.tokenTTL)
}

// LinkChat attaches chatID to the session's account and asks for the
// welcome message.  Only a session identity may link a chat.
func (s *AccountService) LinkChat(ctx context.Context, id Identity, chatID int64, name string) error {
	if id.Source != SourceSession {
		return ErrSessionRequired
	}
	if err := s.users.LinkChat(ctx, id.Email, chatID, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("link chat: %w", err)
	}
	publish(s.log, s.events, queue.ChatLinked, queue.ChatLinkedEvent{
		Email:    id.Email,
		ChatID:   chatID,
		Name:     name,
		LinkedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// IsChatLinked reports whether some account owns chatID.
func (s *AccountService) IsChatLinked(ctx context.Context, chatID int64) (bool, error) {
	_, err := s.users.GetByChatID(ctx, chatID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
