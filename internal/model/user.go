package model

import "time"

// User is an account.  Email is the identity used by every booking and
// credit record; ChatID links the account to at most one chat session of
// the companion bot.
//
// Fields:
//
//	ID           – uuid primary key.
//	Email        – unique, lower-cased login.
//	PasswordHash – bcrypt hash, never serialised.
//	ChatID       – linked chat id (nil when no chat is linked).
//	ChatName     – display name supplied when the chat was linked.
//	JoinedAt     – registration time (UTC).
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ChatID       *int64    `json:"chatId,omitempty"`
	ChatName     *string   `json:"-"`
	JoinedAt     time.Time `json:"joined"`
}
