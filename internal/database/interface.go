package database

import "context"

// Querier runs read-only SQL. The introspection layer depends only on this.
type Querier interface {
	// Query executes a SQL statement that returns multiple rows.
	// Values must be passed as args, never spliced into sql.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Conn is a single, exclusively owned database connection.
// It is not safe for concurrent use.
type Conn interface {
	Querier

	// Close releases the connection. It is safe to call after a failed query.
	Close(ctx context.Context) error
}

// Dialer opens a new Conn. Each call returns a fresh connection that the
// caller owns and must close.
type Dialer func(ctx context.Context) (Conn, error)

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}
