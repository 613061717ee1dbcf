package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
)

var sgt = time.FixedZone("SGT", 8*3600)

func TestNextMidnight(t *testing.T) {
	next := NextMidnight(sgt)
	now := time.Date(2026, 10, 18, 23, 59, 59, 0, sgt)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, sgt), next(now))

	// exactly midnight schedules the following one
	now = time.Date(2026, 10, 19, 0, 0, 0, 0, sgt)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, sgt), next(now))

	// input in another zone is interpreted locally
	utcNow := time.Date(2026, 10, 18, 17, 0, 0, 0, time.UTC) // 01:00 SGT on the 19th
	assert.True(t, next(utcNow).Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, sgt)))
}

func TestNextBoundary(t *testing.T) {
	next := NextBoundary(5*time.Minute, sgt)
	cases := []struct{ now, want time.Time }{
		{time.Date(2026, 10, 19, 7, 0, 0, 0, sgt), time.Date(2026, 10, 19, 7, 5, 0, 0, sgt)},
		{time.Date(2026, 10, 19, 7, 3, 12, 5, sgt), time.Date(2026, 10, 19, 7, 5, 0, 0, sgt)},
		{time.Date(2026, 10, 19, 7, 4, 59, 999, sgt), time.Date(2026, 10, 19, 7, 5, 0, 0, sgt)},
		{time.Date(2026, 10, 19, 23, 58, 0, 0, sgt), time.Date(2026, 10, 20, 0, 0, 0, 0, sgt)},
	}
	for _, c := range cases {
		assert.True(t, next(c.now).Equal(c.want), "now=%s got=%s", c.now, next(c.now))
	}
}

func TestScheduler_RunsAndStops(t *testing.T) {
	var runs atomic.Int32
	job := Job{
		Name: "tick",
		Next: func(now time.Time) time.Time { return now.Add(10 * time.Millisecond) },
		Run: func(context.Context) error {
			if runs.Add(1)%2 == 0 {
				return errors.New("every other run fails")
			}
			return nil
		},
	}
	s := New(zerolog.Nop(), metrics.Noop{}, job)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() { s.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type resetCounter struct{ n atomic.Int32 }

func (r *resetCounter) ResetAll(context.Context) error { r.n.Add(1); return nil }

func TestCreditResetJob_OnlyOnResetDay(t *testing.T) {
	today := time.Now().In(sgt).Weekday()

	r := &resetCounter{}
	assert.NoError(t, CreditResetJob(r, today, sgt).Run(context.Background()))
	assert.EqualValues(t, 1, r.n.Load())

	assert.NoError(t, CreditResetJob(r, (today+1)%7, sgt).Run(context.Background()))
	assert.EqualValues(t, 1, r.n.Load())
}
