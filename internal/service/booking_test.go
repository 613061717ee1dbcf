package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/queue"
)

func newBookingService(store BookingStore, pub Publisher) *BookingService {
	return NewBookingService(store, BookingOptions{MaxCapacity: 20, CancelCutoff: 2 * time.Hour},
		pub, metrics.Noop{}, zerolog.Nop())
}

func session(email string) Identity { return Identity{Source: SourceSession, Email: email} }

func TestBook_CapacityInvariant(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService(&memBookings{}, nil)
	slot := time.Now().Add(72 * time.Hour)

	for i := 0; i < 20; i++ {
		require.NoError(t, svc.Book(ctx, session(fmt.Sprintf("u%d@u.nus.edu", i)), "gym", slot), "booking %d", i+1)
	}
	assert.ErrorIs(t, svc.Book(ctx, session("late@u.nus.edu"), "gym", slot), ErrSlotFull)

	// other slots and facilities are unaffected
	assert.NoError(t, svc.Book(ctx, session("late@u.nus.edu"), "pool", slot))
	assert.NoError(t, svc.Book(ctx, session("late@u.nus.edu"), "gym", slot.Add(time.Hour)))
}

func TestBook_DuplicatesCountTowardCapacity(t *testing.T) {
	ctx := context.Background()
	store := &memBookings{}
	svc := NewBookingService(store, BookingOptions{MaxCapacity: 2, CancelCutoff: 2 * time.Hour},
		nil, metrics.Noop{}, zerolog.Nop())
	slot := time.Now().Add(-time.Hour) // past slots are accepted

	require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", slot))
	require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", slot))
	assert.ErrorIs(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", slot), ErrSlotFull)
	assert.Len(t, store.rows, 2)
}

func TestBook_SubSecondInstantsShareSlot(t *testing.T) {
	ctx := context.Background()
	store := &memBookings{}
	svc := newBookingService(store, nil)
	slot := time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", slot.Add(300*time.Millisecond)))
	n, err := store.CountSlot(ctx, "gym", slot)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, svc.Cancel(ctx, session("a@u.nus.edu"), "gym", slot.In(time.FixedZone("SGT", 8*3600))))
}

func TestCancel_CutoffCheckedFirst(t *testing.T) {
	ctx := context.Background()
	store := &memBookings{}
	svc := newBookingService(store, nil)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	within := now.Add(2*time.Hour - time.Second)
	require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", within))
	assert.ErrorIs(t, svc.Cancel(ctx, session("a@u.nus.edu"), "gym", within), ErrTooLateToCancel)
	assert.Len(t, store.rows, 1)

	// no booking at all still reports the cutoff
	assert.ErrorIs(t, svc.Cancel(ctx, session("a@u.nus.edu"), "gym", now.Add(-time.Hour)), ErrTooLateToCancel)

	// exactly at the cutoff is still allowed
	edge := now.Add(2 * time.Hour)
	require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", edge))
	assert.NoError(t, svc.Cancel(ctx, session("a@u.nus.edu"), "gym", edge))
}

func TestCancel_Exactness(t *testing.T) {
	ctx := context.Background()
	store := &memBookings{}
	svc := newBookingService(store, nil)
	slot := time.Now().Add(48 * time.Hour)

	require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", slot))

	assert.ErrorIs(t, svc.Cancel(ctx, session("b@u.nus.edu"), "gym", slot), ErrSlotNotFound)
	assert.ErrorIs(t, svc.Cancel(ctx, session("a@u.nus.edu"), "pool", slot), ErrSlotNotFound)
	assert.ErrorIs(t, svc.Cancel(ctx, session("a@u.nus.edu"), "gym", slot.Add(time.Minute)), ErrSlotNotFound)
	assert.Len(t, store.rows, 1)

	assert.NoError(t, svc.Cancel(ctx, session("a@u.nus.edu"), "gym", slot))
	assert.Empty(t, store.rows)
}

func TestBook_StoreFailureIsWrapped(t *testing.T) {
	svc := newBookingService(&memBookings{err: errStore}, nil)
	err := svc.Book(context.Background(), session("a@u.nus.edu"), "gym", time.Now())
	assert.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, ErrSlotFull)
}

func TestBookingEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newBookingService(&memBookings{}, pub)
	slot := time.Now().Add(48 * time.Hour)
	chat := Identity{Source: SourceChat, Email: "a@u.nus.edu", ChatID: 9}

	require.NoError(t, svc.Book(ctx, chat, "gym", slot))
	require.NoError(t, svc.Cancel(ctx, chat, "gym", slot))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, queue.BookingCreated, pub.sent[0].key)
	assert.Equal(t, queue.BookingCancelled, pub.sent[1].key)
	ev := pub.sent[0].event.(queue.BookingEvent)
	assert.Equal(t, "chat", ev.Via)
	assert.Equal(t, NormalizeSlot(slot).Format(time.RFC3339), ev.Slot)
}

func TestBookingEvents_PublishFailureIgnored(t *testing.T) {
	svc := newBookingService(&memBookings{}, &recordingPublisher{err: errStore})
	assert.NoError(t, svc.Book(context.Background(), session("a@u.nus.edu"), "gym", time.Now()))
}

func TestCountByTimeBucket_DefaultEnd(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService(&memBookings{}, nil)
	start := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, off := range []time.Duration{9 * time.Hour, 9 * time.Hour, 13 * time.Hour, 24 * time.Hour} {
		require.NoError(t, svc.Book(ctx, session("a@u.nus.edu"), "gym", start.Add(off)))
	}

	got, err := svc.CountByTimeBucket(ctx, "gym", start, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Count)
	assert.True(t, got[0].Slot.Equal(start.Add(9*time.Hour)))
	assert.Equal(t, 1, got[1].Count)

	end := start.Add(48 * time.Hour)
	got, err = svc.CountByTimeBucket(ctx, "gym", start, &end)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestListReservations_NewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newBookingService(&memBookings{}, nil)
	base := time.Now().Add(24 * time.Hour)
	id := session("a@u.nus.edu")

	require.NoError(t, svc.Book(ctx, id, "gym", base))
	require.NoError(t, svc.Book(ctx, id, "pool", base.Add(time.Hour)))
	require.NoError(t, svc.Book(ctx, id, "gym", base.Add(2*time.Hour)))
	require.NoError(t, svc.Book(ctx, session("b@u.nus.edu"), "gym", base))

	all, err := svc.ListReservations(ctx, id, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "gym", all[0].Facility)
	assert.True(t, all[0].Slot.After(all[1].Slot))

	gym, err := svc.ListReservations(ctx, id, "gym")
	require.NoError(t, err)
	require.Len(t, gym, 2)
	assert.True(t, gym[0].Slot.After(gym[1].Slot))
}

// register U, fill the slot with 19 more identities, overflow, then cancel.
func TestScenario_FillSlotThenCancel(t *testing.T) {
	ctx := context.Background()
	users := newMemUsers()
	accounts := NewAccountService(users, AccountOptions{JWTSecret: "s", TokenTTL: time.Hour, BcryptCost: 4, DefaultCredits: 6}, nil, zerolog.Nop())
	u, _, err := accounts.Register(ctx, "u@u.nus.edu", "pw")
	require.NoError(t, err)

	store := &memBookings{}
	svc := newBookingService(store, nil)
	slot := time.Now().Add(7 * 24 * time.Hour)

	require.NoError(t, svc.Book(ctx, session(u.Email), "F", slot))
	for i := 2; i <= 20; i++ {
		require.NoError(t, svc.Book(ctx, session(fmt.Sprintf("other%d@u.nus.edu", i)), "F", slot))
	}
	assert.ErrorIs(t, svc.Book(ctx, session("overflow@u.nus.edu"), "F", slot), ErrSlotFull)

	require.NoError(t, svc.Cancel(ctx, session(u.Email), "F", slot))
	n, err := store.CountSlot(ctx, "F", NormalizeSlot(slot))
	require.NoError(t, err)
	assert.Equal(t, 19, n)
}
