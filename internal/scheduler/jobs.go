package scheduler

import (
	"context"
	"time"
)

// CreditResetter is satisfied by service.CreditService.
type CreditResetter interface {
	ResetAll(ctx context.Context) error
}

// TrafficPoller is satisfied by service.TrafficService.
type TrafficPoller interface {
	Poll(ctx context.Context) error
}

// CreditResetJob fires at every local midnight and resets all balances
// when the day that has just begun is the reset day.
func CreditResetJob(r CreditResetter, day time.Weekday, loc *time.Location) Job {
	return Job{
		Name: "credit_reset",
		Next: NextMidnight(loc),
		Run: func(ctx context.Context) error {
			if time.Now().In(loc).Weekday() != day {
				return nil
			}
			return r.ResetAll(ctx)
		},
		Timeout: time.Minute,
	}
}

// TrafficPollJob fires on every five minute boundary.
func TrafficPollJob(p TrafficPoller, loc *time.Location) Job {
	return Job{
		Name:    "traffic_poll",
		Next:    NextBoundary(5*time.Minute, loc),
		Run:     p.Poll,
		Timeout: 2 * time.Minute,
	}
}
