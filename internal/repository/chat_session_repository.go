package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/tanjiaxian99/nusfitness-api/internal/database"
	"github.com/tanjiaxian99/nusfitness-api/internal/model"
)

// ChatSessionRepo stores bot navigation histories keyed by chat id.
type ChatSessionRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewChatSessionRepo(db *sql.DB, d database.Dialect) *ChatSessionRepo {
	return &ChatSessionRepo{db: db, dialect: d}
}

// Get loads the session of chatID, or ErrNotFound.
func (r *ChatSessionRepo) Get(ctx context.Context, chatID int64) (model.ChatSession, error) {
	var (
		s   = model.ChatSession{ChatID: chatID}
		raw string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT menus, updated_at FROM chat_sessions WHERE chat_id = ?", chatID).
		Scan(&raw, sqlTime{&s.UpdatedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChatSession{}, ErrNotFound
		}
		return model.ChatSession{}, err
	}
	if err := json.Unmarshal([]byte(raw), &s.Menus); err != nil {
		return model.ChatSession{}, err
	}
	return s, nil
}

// Save creates or replaces the session's menu list.
func (r *ChatSessionRepo) Save(ctx context.Context, s model.ChatSession) error {
	menus, err := json.Marshal(s.Menus)
	if err != nil {
		return err
	}
	q := `INSERT INTO chat_sessions (chat_id, menus, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE menus = VALUES(menus), updated_at = VALUES(updated_at)`
	if r.dialect == database.SQLite {
		q = `INSERT INTO chat_sessions (chat_id, menus, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET menus = excluded.menus, updated_at = excluded.updated_at`
	}
	_, err = r.db.ExecContext(ctx, q, s.ChatID, string(menus), dbTime(time.Now()))
	return err
}
