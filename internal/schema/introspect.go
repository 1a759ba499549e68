package schema

import (
	"context"
	"fmt"

	"github.com/koustreak/schemadrift/internal/database"
	"github.com/koustreak/schemadrift/internal/errs"
)

// PgIntrospector reads table metadata from the Postgres catalogs.
// Every statement binds schema and table as parameters.
type PgIntrospector struct {
	db database.Querier
}

// NewPgIntrospector creates a new Postgres schema introspector
func NewPgIntrospector(db database.Querier) *PgIntrospector {
	return &PgIntrospector{db: db}
}

// TableExists checks whether a table, view or foreign table exists.
// pg_class lists relations whatever the role's privileges on them, so a table
// the role cannot read still exists; information_schema.columns then returns
// no columns for it.
func (p *PgIntrospector) TableExists(ctx context.Context, schema, table string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM pg_catalog.pg_class c
			JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
			WHERE n.nspname = $1
			  AND c.relname = $2
			  AND c.relkind IN ('r', 'p', 'v', 'm', 'f')
		)`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return false, fmt.Errorf("table exists check: %w", err)
	}
	defer rows.Close()

	var exists bool
	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return false, fmt.Errorf("scan table exists: %w", err)
		}
	}
	return exists, rows.Err()
}

// Columns returns the columns of a table in ordinal order.
func (p *PgIntrospector) Columns(ctx context.Context, schema, table string) ([]ColumnInfo, error) {
	const q = `
		SELECT column_name::text,
		       data_type::text,
		       is_nullable::text,
		       column_default::text
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name   = $2
		ORDER BY ordinal_position`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	cols := make([]ColumnInfo, 0)
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.Default); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// Policies returns the row-level-security policies attached to a table.
func (p *PgIntrospector) Policies(ctx context.Context, schema, table string) ([]PolicyInfo, error) {
	const q = `
		SELECT policyname::text,
		       cmd,
		       permissive = 'PERMISSIVE',
		       roles::text[],
		       qual,
		       with_check
		FROM pg_policies
		WHERE schemaname = $1
		  AND tablename  = $2
		ORDER BY policyname`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("policies of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	policies := make([]PolicyInfo, 0)
	for rows.Next() {
		var pol PolicyInfo
		if err := rows.Scan(&pol.Name, &pol.Command, &pol.Permissive, &pol.Roles, &pol.Using, &pol.WithCheck); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policies = append(policies, pol)
	}
	return policies, rows.Err()
}

// Indexes returns the indexes defined on a table.
func (p *PgIntrospector) Indexes(ctx context.Context, schema, table string) ([]IndexInfo, error) {
	const q = `
		SELECT indexname::text,
		       indexdef
		FROM pg_indexes
		WHERE schemaname = $1
		  AND tablename  = $2
		ORDER BY indexname`

	rows, err := p.db.Query(ctx, q, schema, table)
	if err != nil {
		return nil, fmt.Errorf("indexes of %s.%s: %w", schema, table, err)
	}
	defer rows.Close()

	indexes := make([]IndexInfo, 0)
	for rows.Next() {
		var idx IndexInfo
		if err := rows.Scan(&idx.Name, &idx.Definition); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// InspectTable reads columns, policies and indexes of one table.
// A table that does not exist yields an ErrKindInvalidInput error instead of
// empty results.
func (p *PgIntrospector) InspectTable(ctx context.Context, schema, table string) (*TableMetadata, error) {
	exists, err := p.TableExists(ctx, schema, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("table %s.%s does not exist", schema, table))
	}

	meta := &TableMetadata{Schema: schema, Table: table}
	if meta.Columns, err = p.Columns(ctx, schema, table); err != nil {
		return nil, err
	}
	if meta.Policies, err = p.Policies(ctx, schema, table); err != nil {
		return nil, err
	}
	if meta.Indexes, err = p.Indexes(ctx, schema, table); err != nil {
		return nil, err
	}
	return meta, nil
}

// FetchTableMetadata opens a connection with dial, inspects one table and
// closes the connection again, whether or not the queries succeeded.
func FetchTableMetadata(ctx context.Context, dial database.Dialer, schema, table string) (meta *TableMetadata, err error) {
	conn, err := dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return NewPgIntrospector(conn).InspectTable(ctx, schema, table)
}
