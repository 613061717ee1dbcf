package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/tanjiaxian99/nusfitness-api/internal/config"
)

// Dialect identifies the SQL flavour behind a *sql.DB.  Repositories only
// branch on it for upserts; every other statement is portable.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Open connects to the configured store and verifies the connection.
func Open(cfg config.DBConfig) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := OpenSQLite(cfg.Path)
		return db, SQLite, err
	default:
		db, err := OpenMySQL(cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name)
		return db, MySQL, err
	}
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps slot instants comparable
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens an SQLite database at path (":memory:" for a private
// in-memory database).  A single connection is kept so that an in-memory
// database is shared by every query and writers never contend.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
