package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The two schemas describe the same five record sets.  Relationships are by
// matching key values only; there are no foreign keys.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		chat_id       BIGINT       NULL,
		chat_name     VARCHAR(255) NULL,
		joined_at     DATETIME     NOT NULL,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_chat_id (chat_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS credits (
		email   VARCHAR(255) NOT NULL PRIMARY KEY,
		credits INT          NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id         CHAR(36)     NOT NULL PRIMARY KEY,
		email      VARCHAR(255) NOT NULL,
		facility   VARCHAR(255) NOT NULL,
		slot_at    DATETIME     NOT NULL,
		created_at DATETIME     NOT NULL,
		KEY idx_bookings_slot (facility, slot_at),
		KEY idx_bookings_owner (email, slot_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS traffic_samples (
		sampled_at DATETIME NOT NULL PRIMARY KEY,
		counts     TEXT     NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		chat_id    BIGINT   NOT NULL PRIMARY KEY,
		menus      TEXT     NOT NULL,
		updated_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     NOT NULL PRIMARY KEY,
		email         TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		chat_id       INTEGER  NULL UNIQUE,
		chat_name     TEXT     NULL,
		joined_at     DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS credits (
		email   TEXT    NOT NULL PRIMARY KEY,
		credits INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id         TEXT     NOT NULL PRIMARY KEY,
		email      TEXT     NOT NULL,
		facility   TEXT     NOT NULL,
		slot_at    DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_slot ON bookings (facility, slot_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings (email, slot_at)`,
	`CREATE TABLE IF NOT EXISTS traffic_samples (
		sampled_at DATETIME NOT NULL PRIMARY KEY,
		counts     TEXT     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		chat_id    INTEGER  NOT NULL PRIMARY KEY,
		menus      TEXT     NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := mysqlSchema
	if d == SQLite {
		stmts = sqliteSchema
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
