package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/schemadrift/internal/database"
	"github.com/koustreak/schemadrift/internal/errs"
)

const (
	defaultMaxConns        = 4
	defaultMaxConnIdleTime = 5 * time.Minute
)

// Pool hands out pooled connections. Used when reports are served over HTTP,
// where opening a fresh connection per request is wasteful.
// It is safe for concurrent use.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a pool from cfg and checks that the database is reachable.
// The caller must Close it.
func NewPool(ctx context.Context, cfg *database.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid connection parameters", err)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	poolCfg.MaxConns = defaultMaxConns
	poolCfg.MaxConnIdleTime = defaultMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapError(err, "failed to create pool for "+cfg.Host)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, mapError(err, "failed to connect to "+cfg.Host)
	}
	return &Pool{pool: pool}, nil
}

// Dialer returns a database.Dialer that acquires a connection from the pool.
// Closing the returned Conn releases it back to the pool.
func (p *Pool) Dialer() database.Dialer {
	return func(ctx context.Context) (database.Conn, error) {
		c, err := p.pool.Acquire(ctx)
		if err != nil {
			return nil, mapError(err, "failed to acquire connection")
		}
		return &pooledConn{conn: c}, nil
	}
}

// Close closes every connection in the pool.
func (p *Pool) Close() {
	p.pool.Close()
}

type pooledConn struct {
	conn *pgxpool.Conn
}

func (c *pooledConn) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

func (c *pooledConn) Close(context.Context) error {
	c.conn.Release()
	return nil
}
