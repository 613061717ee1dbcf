package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func visitAll(t *testing.T, n *MenuNavigator, chatID int64, menus ...string) {
	t.Helper()
	for _, m := range menus {
		require.NoError(t, n.Visit(context.Background(), chatID, m))
	}
}

func TestVisit_FirstVisitCreatesSession(t *testing.T) {
	store := newMemSessions()
	n := NewMenuNavigator(store)
	visitAll(t, n, 1, "Booking")
	assert.Equal(t, []string{"Booking"}, store.sessions[1])
}

func TestVisit_Idempotent(t *testing.T) {
	store := newMemSessions()
	n := NewMenuNavigator(store)
	visitAll(t, n, 1, "Start", "Booking")
	saves := store.saves

	visitAll(t, n, 1, "Booking")
	assert.Equal(t, []string{"Start", "Booking"}, store.sessions[1])
	assert.Equal(t, saves, store.saves, "refresh must not write")
}

func TestVisit_Collapse(t *testing.T) {
	store := newMemSessions()
	n := NewMenuNavigator(store)
	visitAll(t, n, 1, "A", "B", "C", "D", "B")
	assert.Equal(t, []string{"A", "B"}, store.sessions[1])
}

func TestVisit_StartResets(t *testing.T) {
	store := newMemSessions()
	n := NewMenuNavigator(store)
	visitAll(t, n, 1, "A", "B", "C", "Start")
	assert.Equal(t, []string{"Start"}, store.sessions[1])

	// Start while already on Start stays a single entry
	visitAll(t, n, 1, "Start")
	assert.Equal(t, []string{"Start"}, store.sessions[1])
}

func TestVisit_ChatsAreIndependent(t *testing.T) {
	store := newMemSessions()
	n := NewMenuNavigator(store)
	visitAll(t, n, 1, "Start", "A")
	visitAll(t, n, 2, "Start", "B")
	assert.Equal(t, []string{"Start", "A"}, store.sessions[1])
	assert.Equal(t, []string{"Start", "B"}, store.sessions[2])
}

func TestPreviousMenu_Bounds(t *testing.T) {
	ctx := context.Background()
	n := NewMenuNavigator(newMemSessions())

	_, err := n.PreviousMenu(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrMenuNotAvailable, "no session")

	visitAll(t, n, 1, "Start")
	_, err = n.PreviousMenu(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrMenuNotAvailable, "single element")

	visitAll(t, n, 1, "A", "B")
	got, err := n.PreviousMenu(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "A", got)

	got, err = n.PreviousMenu(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Start", got)

	got, err = n.PreviousMenu(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "B", got)

	_, err = n.PreviousMenu(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrMenuNotAvailable)
	_, err = n.PreviousMenu(ctx, 1, -1)
	assert.ErrorIs(t, err, ErrMenuNotAvailable)
}

func TestScenario_NavigateBack(t *testing.T) {
	store := newMemSessions()
	n := NewMenuNavigator(store)
	visitAll(t, n, 1, "Start", "Booking", "BookedSlots", "Booking")
	assert.Equal(t, []string{"Start", "Booking"}, store.sessions[1])

	got, err := n.PreviousMenu(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Start", got)
}
