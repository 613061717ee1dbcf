package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/queue"
)

// Publisher is satisfied by queue.Publisher and queue.Inline.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// publish sends an event without letting a failure reach the caller.  The
// request context may already be gone when the broker is slow, so events
// get their own deadline.
func publish(log zerolog.Logger, p Publisher, key string, event any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx, key, event); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("event not delivered")
	}
}

func bookingEvent(id Identity, facility string, slot time.Time) queue.BookingEvent {
	return queue.BookingEvent{
		Email:      id.Email,
		Facility:   facility,
		Slot:       slot.UTC().Format(time.RFC3339),
		Via:        id.Source.String(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
