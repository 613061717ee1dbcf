package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tanjiaxian99/nusfitness-api/internal/model"
)

// TimeRange bounds a query on sample time.  Nil bounds are ignored, so the
// zero value selects everything.
type TimeRange struct {
	GTE *time.Time
	GT  *time.Time
	LTE *time.Time
	LT  *time.Time
}

func (tr TimeRange) where(col string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(op string, t *time.Time) {
		if t != nil {
			conds = append(conds, col+" "+op+" ?")
			args = append(args, dbTime(*t))
		}
	}
	add(">=", tr.GTE)
	add(">", tr.GT)
	add("<=", tr.LTE)
	add("<", tr.LT)
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// TrafficRepo is the append-only store of occupancy samples.
type TrafficRepo struct{ db *sql.DB }

func NewTrafficRepo(db *sql.DB) *TrafficRepo { return &TrafficRepo{db: db} }

// Insert appends a sample.  A second sample for the same instant is a
// duplicate and is ignored.
func (r *TrafficRepo) Insert(ctx context.Context, s model.TrafficSample) error {
	counts, err := json.Marshal(s.Counts)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO traffic_samples (sampled_at, counts) VALUES (?, ?)",
		dbTime(s.SampledAt), string(counts))
	if err != nil && isDuplicate(err) {
		return nil
	}
	return err
}

// List returns the samples inside tr ordered by time.
func (r *TrafficRepo) List(ctx context.Context, tr TimeRange) ([]model.TrafficSample, error) {
	where, args := tr.where("sampled_at")
	rows, err := r.db.QueryContext(ctx,
		"SELECT sampled_at, counts FROM traffic_samples"+where+" ORDER BY sampled_at", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrafficSample
	for rows.Next() {
		var (
			s   model.TrafficSample
			raw string
		)
		if err := rows.Scan(sqlTime{&s.SampledAt}, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &s.Counts); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
