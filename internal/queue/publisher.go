package queue

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher sends events to RabbitMQ.  It dials per publish: events are
// rare and a broken broker must never wedge a request.
type Publisher struct {
	url string
	log zerolog.Logger
}

func NewPublisher(url string, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, log: log.With().Str("component", "publisher").Logger()}
}

// Publish marshals event and sends it persistently under routingKey.  Any
// error is logged and returned so the caller can ignore it.
func (p *Publisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("key", routingKey).Msg("marshal event failed")
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// idempotent; durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
		p.log.Warn().Err(err).Str("key", routingKey).Msg("queue declare failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", routingKey, false, false, pub); err != nil {
		p.log.Warn().Err(err).Str("key", routingKey).Msg("publish failed")
		return err
	}
	return nil
}

// Inline runs the consumer handlers in-process.  It stands in for the
// broker when none is configured so that events still take effect.
type Inline struct {
	handlers map[string]Handler
	log      zerolog.Logger
}

func NewInline(handlers map[string]Handler, log zerolog.Logger) *Inline {
	return &Inline{handlers: handlers, log: log.With().Str("component", "inline-events").Logger()}
}

func (p *Inline) Publish(ctx context.Context, routingKey string, event any) error {
	h, ok := p.handlers[routingKey]
	if !ok {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := h(ctx, body); err != nil {
		p.log.Warn().Err(err).Str("key", routingKey).Msg("handler failed")
		return err
	}
	return nil
}
