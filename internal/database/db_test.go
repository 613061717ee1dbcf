package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanjiaxian99/nusfitness-api/internal/config"
)

func TestOpen_SQLiteMigratesIdempotently(t *testing.T) {
	db, d, err := Open(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, SQLite, d)

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, d))
	require.NoError(t, Migrate(ctx, db, d))

	for _, table := range []string{"users", "credits", "bookings", "traffic_samples", "chat_sessions"} {
		var n int
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n)
		require.NoError(t, err)
		require.Equal(t, 1, n, table)
	}
}
