package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Handler processes one message body.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Consumer declares one durable queue per handler key and dispatches
// deliveries to the matching handler.
type Consumer struct {
	url      string
	handlers map[string]Handler
	log      zerolog.Logger
}

func NewConsumer(url string, handlers map[string]Handler, log zerolog.Logger) *Consumer {
	return &Consumer{url: url, handlers: handlers, log: log.With().Str("component", "consumer").Logger()}
}

// Run connects and consumes until ctx is cancelled, reconnecting with
// exponential backoff (capped at 30s) whenever the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set QoS failed")
	}

	ended := make(chan error, len(c.handlers))
	for key, h := range c.handlers {
		if _, err := ch.QueueDeclare(key, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", key, err)
		}
		msgs, err := ch.Consume(key, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", key, err)
		}
		go func(key string, h Handler, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				c.dispatch(ctx, key, h, d)
			}
			ended <- fmt.Errorf("%s: deliveries channel closed", key)
		}(key, h, msgs)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ended:
		return err
	}
}

func (c *Consumer) dispatch(ctx context.Context, key string, h Handler, d amqp.Delivery) {
	if err := h(ctx, d.Body); err != nil {
		c.log.Error().Err(err).Str("key", key).Str("message_id", d.MessageId).Msg("handle message failed")
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// BookingLogHandler writes one structured log line per booking event.
func BookingLogHandler(log zerolog.Logger, action string) Handler {
	return func(_ context.Context, body []byte) error {
		var ev BookingEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		log.Info().
			Str("action", action).
			Str("email", ev.Email).
			Str("facility", ev.Facility).
			Str("slot", ev.Slot).
			Str("via", ev.Via).
			Str("at", ev.OccurredAt).
			Msg("booking event")
		return nil
	}
}

// WelcomeSender delivers the bot greeting to a freshly linked chat.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, chatID int64, name string) error
}

// WelcomeHandler greets the chat named by a ChatLinkedEvent.
func WelcomeHandler(s WelcomeSender) Handler {
	return func(ctx context.Context, body []byte) error {
		var ev ChatLinkedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		return s.SendWelcome(ctx, ev.ChatID, ev.Name)
	}
}

// Handlers is the standard handler set for both the broker consumer and
// the inline publisher.
func Handlers(log zerolog.Logger, s WelcomeSender) map[string]Handler {
	return map[string]Handler{
		BookingCreated:   BookingLogHandler(log, "created"),
		BookingCancelled: BookingLogHandler(log, "cancelled"),
		ChatLinked:       WelcomeHandler(s),
	}
}
