// Package postgres implements database.Conn on a single pgx connection.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/koustreak/schemadrift/internal/database"
	"github.com/koustreak/schemadrift/internal/errs"
)

// Conn is a PostgreSQL implementation of database.Conn backed by one pgx.Conn.
// It is not safe for concurrent use.
type Conn struct {
	conn *pgx.Conn
}

// Connect opens a connection using cfg. The caller owns the returned Conn
// and must Close it.
func Connect(ctx context.Context, cfg *database.Config) (*Conn, error) {
	connCfg, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid connection parameters", err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, mapError(err, "failed to connect to "+cfg.Host)
	}
	return &Conn{conn: conn}, nil
}

// Dialer returns a database.Dialer that opens a new Conn from cfg on every call.
func Dialer(cfg *database.Config) database.Dialer {
	return func(ctx context.Context) (database.Conn, error) {
		c, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Query executes a SQL statement that returns multiple rows.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

// Close terminates the connection.
func (c *Conn) Close(ctx context.Context) error {
	if err := c.conn.Close(ctx); err != nil {
		return mapError(err, "failed to close connection")
	}
	return nil
}

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Close()     { r.rows.Close() }

func (r *pgxRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "failed to scan row")
	}
	return nil
}

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "error iterating rows")
	}
	return nil
}
