// Package databasetest provides an in-memory database.Conn for tests.
//
// Usage:
//
//	conn := &databasetest.Conn{Responses: []databasetest.Response{
//	    {Match: "information_schema.columns", Rows: [][]any{{"id", "uuid", "NO", nil}}},
//	}}
//	meta, err := schema.FetchTableMetadata(ctx, conn.Dialer(), "public", "matters")
package databasetest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/koustreak/schemadrift/internal/database"
)

// Response is a canned answer for every query whose SQL contains Match.
type Response struct {
	Match string
	Rows  [][]any
	Err   error
}

// Query records one statement received by Conn.
type Query struct {
	SQL  string
	Args []any
}

// Conn answers queries from Responses in order of declaration; the first
// Response whose Match is a substring of the SQL wins. Queries with no
// matching Response fail.
type Conn struct {
	Responses []Response
	// DialErr, when set, makes Dialer fail without handing out the Conn.
	DialErr error

	mu      sync.Mutex
	queries []Query
	dials   int
	closed  int
}

// Query implements database.Querier.
func (c *Conn) Query(_ context.Context, sql string, args ...any) (database.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queries = append(c.queries, Query{SQL: sql, Args: args})
	for _, r := range c.Responses {
		if strings.Contains(sql, r.Match) {
			if r.Err != nil {
				return nil, r.Err
			}
			return &Rows{data: r.Rows}, nil
		}
	}
	return nil, fmt.Errorf("databasetest: no response for query %q", sql)
}

// Close implements database.Conn.
func (c *Conn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// Dialer returns a database.Dialer that hands out c.
func (c *Conn) Dialer() database.Dialer {
	return func(context.Context) (database.Conn, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.dials++
		if c.DialErr != nil {
			return nil, c.DialErr
		}
		return c, nil
	}
}

// Queries returns the statements received so far.
func (c *Conn) Queries() []Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Query(nil), c.queries...)
}

// Dials reports how many times the Dialer was invoked.
func (c *Conn) Dials() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dials
}

// Closed reports how many times Close was called.
func (c *Conn) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Rows iterates over canned values.
type Rows struct {
	data [][]any
	pos  int
}

func (r *Rows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

// Scan assigns the current row to dest. A nil value zeroes the destination;
// a pointer destination (e.g. **string) receives a pointer to a copy.
func (r *Rows) Scan(dest ...any) error {
	if r.pos == 0 || r.pos > len(r.data) {
		return fmt.Errorf("databasetest: Scan called without a current row")
	}
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("databasetest: %d destinations for %d values", len(dest), len(row))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d)
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("databasetest: destination %d is not a non-nil pointer", i)
		}
		target = target.Elem()

		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}

		val := reflect.ValueOf(row[i])
		switch {
		case val.Type().AssignableTo(target.Type()):
			target.Set(val)
		case target.Kind() == reflect.Pointer && val.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(val)
			target.Set(p)
		default:
			return fmt.Errorf("databasetest: cannot scan %T into %s", row[i], target.Type())
		}
	}
	return nil
}

func (r *Rows) Close()     {}
func (r *Rows) Err() error { return nil }
