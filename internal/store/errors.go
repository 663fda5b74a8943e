package store

import (
	"context"
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors returned by store operations. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrNotFound      = errors.New("not found")
	ErrInUse         = errors.New("still in use")
	ErrDuplicate     = errors.New("already exists")
	ErrNotEditable   = errors.New("transfer can no longer be edited")
	ErrStaleSnapshot = errors.New("transfer changed since it was loaded")
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
