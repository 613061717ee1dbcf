package repository

import (
	"context"
	"database/sql"
	"errors"
)

// CreditRepo stores one balance per email.
type CreditRepo struct{ db *sql.DB }

func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

func insertCreditsTx(ctx context.Context, tx *sql.Tx, email string, credits int) error {
	_, err := tx.ExecContext(ctx, "INSERT INTO credits (email, credits) VALUES (?, ?)", email, credits)
	return err
}

// Get returns the balance of email, or ErrNotFound.
func (r *CreditRepo) Get(ctx context.Context, email string) (int, error) {
	var credits int
	err := r.db.QueryRowContext(ctx,
		"SELECT credits FROM credits WHERE email = ?", NormalizeEmail(email)).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return credits, err
}

// Decrement removes one credit.  The predicate keeps the balance from going
// below zero when two requests race; the loser gets ErrNoCredits.
func (r *CreditRepo) Decrement(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE credits SET credits = credits - 1 WHERE email = ? AND credits > 0", NormalizeEmail(email))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoCredits
	}
	return nil
}

// ResetAll sets every balance to credits and returns the number of rows
// touched.
func (r *CreditRepo) ResetAll(ctx context.Context, credits int) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE credits SET credits = ?", credits)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
