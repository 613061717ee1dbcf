package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, email, password_hash, chat_id, chat_name, joined_at"

// NormalizeEmail lower-cases and trims an email the same way on every path.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Register inserts the account together with its starting credit balance
// in one transaction.  A duplicate email yields ErrEmailExists.
func (r *UserRepo) Register(ctx context.Context, email, passwordHash string, credits int) (model.User, error) {
	u := model.User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		JoinedAt:     time.Now().UTC().Truncate(time.Second),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, joined_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Email, u.PasswordHash, dbTime(u.JoinedAt))
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	if err := insertCreditsTx(ctx, tx, u.Email, credits); err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	committed = true
	return u, nil
}

// GetByEmail fetches an account by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", NormalizeEmail(email))
	return scanUser(row)
}

// GetByChatID fetches the account a chat is linked to.
func (r *UserRepo) GetByChatID(ctx context.Context, chatID int64) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE chat_id = ? LIMIT 1", chatID)
	return scanUser(row)
}

// LinkChat attaches chatID to the account.  A chat belongs to one account
// at a time, so the id is first detached from any other account.
func (r *UserRepo) LinkChat(ctx context.Context, email string, chatID int64, name string) error {
	email = NormalizeEmail(email)
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET chat_id = NULL, chat_name = NULL WHERE chat_id = ? AND email <> ?",
		chatID, email); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET chat_id = ?, chat_name = ? WHERE email = ?", chatID, name, email)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		// MySQL reports 0 when the row already holds these values.
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u        model.User
		chatID   sql.NullInt64
		chatName sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &chatID, &chatName, sqlTime{&u.JoinedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if chatID.Valid {
		id := chatID.Int64
		u.ChatID = &id
	}
	if chatName.Valid {
		n := chatName.String
		u.ChatName = &n
	}
	return u, nil
}
