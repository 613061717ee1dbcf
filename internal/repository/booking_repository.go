package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
)

// BookingRepo persists facility slot bookings.  Slot instants are expected
// to be UTC at second precision; see service.NormalizeSlot.
type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CountSlot returns how many bookings hold exactly (facility, slot).
func (r *BookingRepo) CountSlot(ctx context.Context, facility string, slot time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE facility = ? AND slot_at = ?",
		facility, dbTime(slot)).Scan(&n)
	return n, err
}

// Insert stores b, assigning its id and creation time.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO bookings (id, email, facility, slot_at, created_at) VALUES (?, ?, ?, ?, ?)",
		b.ID, NormalizeEmail(b.Email), b.Facility, dbTime(b.Slot), dbTime(b.CreatedAt))
	return err
}

// DeleteOne removes a single booking matching the triple.  Duplicate
// bookings of the same slot are removed one per call.  It returns
// ErrNotFound when nothing matched.
func (r *BookingRepo) DeleteOne(ctx context.Context, email, facility string, slot time.Time) error {
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

	var id string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM bookings WHERE email = ? AND facility = ? AND slot_at = ? ORDER BY created_at, id LIMIT 1",
		NormalizeEmail(email), facility, dbTime(slot)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CountBySlot groups the facility's bookings in [start, end) by slot,
// ascending.  Slots without bookings do not appear.
func (r *BookingRepo) CountBySlot(ctx context.Context, facility string, start, end time.Time) ([]model.SlotCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slot_at, COUNT(*) FROM bookings
		 WHERE facility = ? AND slot_at >= ? AND slot_at < ?
		 GROUP BY slot_at ORDER BY slot_at ASC`,
		facility, dbTime(start), dbTime(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.SlotCount, 0)
	for rows.Next() {
		var sc model.SlotCount
		if err := rows.Scan(sqlTime{&sc.Slot}, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListByOwner returns the bookings of email, newest slot first.  An empty
// facility lists every facility.
func (r *BookingRepo) ListByOwner(ctx context.Context, email, facility string) ([]model.Booking, error) {
	q := "SELECT id, email, facility, slot_at, created_at FROM bookings WHERE email = ?"
	args := []any{NormalizeEmail(email)}
	if facility != "" {
		q += " AND facility = ?"
		args = append(args, facility)
	}
	q += " ORDER BY slot_at DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.Email, &b.Facility, sqlTime{&b.Slot}, sqlTime{&b.CreatedAt}); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
