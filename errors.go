package embedgen

import "errors"

var (
	// ErrNoDatabase indicates no database was configured.
	ErrNoDatabase = errors.New("embedgen: no database configured (use WithSQLite, WithPostgres or WithDatabaseURL)")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("embedgen: client is closed")
)
