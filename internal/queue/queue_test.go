package queue

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	chatID int64
	name   string
	err    error
}

func (f *fakeSender) SendWelcome(_ context.Context, chatID int64, name string) error {
	f.chatID, f.name = chatID, name
	return f.err
}

func TestInline_DispatchesToHandlers(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	sender := &fakeSender{}
	p := NewInline(Handlers(log, sender), log)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, ChatLinked, ChatLinkedEvent{Email: "a@u.nus.edu", ChatID: 42, Name: "alice"}))
	assert.Equal(t, int64(42), sender.chatID)
	assert.Equal(t, "alice", sender.name)

	require.NoError(t, p.Publish(ctx, BookingCreated, BookingEvent{Email: "a@u.nus.edu", Facility: "gym", Via: "chat"}))
	assert.Contains(t, buf.String(), `"action":"created"`)
	assert.Contains(t, buf.String(), `"facility":"gym"`)

	require.NoError(t, p.Publish(ctx, "unknown.key", struct{}{}))
}

func TestInline_HandlerErrorIsReturned(t *testing.T) {
	sender := &fakeSender{err: errors.New("bot down")}
	p := NewInline(Handlers(zerolog.Nop(), sender), zerolog.Nop())
	err := p.Publish(context.Background(), ChatLinked, ChatLinkedEvent{ChatID: 1})
	assert.EqualError(t, err, "bot down")
}

func TestBookingLogHandler_RejectsGarbage(t *testing.T) {
	h := BookingLogHandler(zerolog.Nop(), "created")
	assert.Error(t, h(context.Background(), []byte("{not json")))
}
