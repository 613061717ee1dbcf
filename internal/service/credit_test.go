package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
)

func TestConsume_CreditFloor(t *testing.T) {
	ctx := context.Background()
	store := &memCredits{balances: map[string]int{"a@u.nus.edu": 2}}
	svc := NewCreditService(store, 6, metrics.Noop{}, zerolog.Nop())
	id := session("a@u.nus.edu")

	require.NoError(t, svc.Consume(ctx, id))
	require.NoError(t, svc.Consume(ctx, id))
	assert.ErrorIs(t, svc.Consume(ctx, id), ErrNoCreditsLeft)

	n, err := svc.Remaining(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestConsume_LostRace(t *testing.T) {
	store := &memCredits{balances: map[string]int{"a@u.nus.edu": 1}, raceLoss: true}
	svc := NewCreditService(store, 6, metrics.Noop{}, zerolog.Nop())
	assert.ErrorIs(t, svc.Consume(context.Background(), session("a@u.nus.edu")), ErrNoCreditsLeft)
	assert.Equal(t, 1, store.balances["a@u.nus.edu"])
}

func TestRemaining_UnknownIdentity(t *testing.T) {
	svc := NewCreditService(&memCredits{balances: map[string]int{}}, 6, metrics.Noop{}, zerolog.Nop())
	_, err := svc.Remaining(context.Background(), session("ghost@u.nus.edu"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, svc.Consume(context.Background(), session("ghost@u.nus.edu")), ErrUnauthorized)
}

func TestResetAll(t *testing.T) {
	store := &memCredits{balances: map[string]int{"a": 0, "b": 3}}
	svc := NewCreditService(store, 6, metrics.Noop{}, zerolog.Nop())
	require.NoError(t, svc.ResetAll(context.Background()))
	assert.Equal(t, map[string]int{"a": 6, "b": 6}, store.balances)
}
