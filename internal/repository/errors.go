// Package repository holds the SQL access layer.  The sentinel values below
// let the service layer tell expected outcomes apart from store failures;
// anything else returned by a repository is a store failure.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when registering an email that already has an
// account.
var ErrEmailExists = errors.New("email already exists")

// ErrNoCredits is returned when a conditional decrement matched no row
// because the balance was already zero.
var ErrNoCredits = errors.New("no credits left")

// isDuplicate reports whether err is a unique-key violation on either
// supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
