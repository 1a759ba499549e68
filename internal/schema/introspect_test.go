package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/koustreak/schemadrift/internal/database/databasetest"
	"github.com/koustreak/schemadrift/internal/errs"
	"github.com/koustreak/schemadrift/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func mattersConn() *databasetest.Conn {
	return &databasetest.Conn{Responses: []databasetest.Response{
		{Match: "pg_class", Rows: [][]any{{true}}},
		{Match: "information_schema.columns", Rows: [][]any{
			{"id", "uuid", "NO", "gen_random_uuid()"},
			{"title", "text", "YES", nil},
		}},
		{Match: "pg_policies", Rows: [][]any{
			{"matters_select", "SELECT", true, []string{"authenticated"}, "true", nil},
		}},
		{Match: "pg_indexes", Rows: [][]any{
			{"matters_pkey", "CREATE UNIQUE INDEX matters_pkey ON public.matters USING btree (id)"},
		}},
	}}
}

func TestFetchTableMetadata(t *testing.T) {
	conn := mattersConn()

	meta, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "matters")
	require.NoError(t, err)

	assert.Equal(t, "public", meta.Schema)
	assert.Equal(t, "matters", meta.Table)
	assert.Equal(t, []schema.ColumnInfo{
		{Name: "id", DataType: "uuid", Nullable: "NO", Default: strPtr("gen_random_uuid()")},
		{Name: "title", DataType: "text", Nullable: "YES"},
	}, meta.Columns)
	assert.Equal(t, []schema.PolicyInfo{
		{Name: "matters_select", Command: "SELECT", Permissive: true, Roles: []string{"authenticated"}, Using: strPtr("true")},
	}, meta.Policies)
	require.Len(t, meta.Indexes, 1)
	assert.Equal(t, "matters_pkey", meta.Indexes[0].Name)

	assert.Equal(t, 1, conn.Dials())
	assert.Equal(t, 1, conn.Closed())
}

func TestFetchTableMetadata_QueryOrder(t *testing.T) {
	conn := mattersConn()

	_, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "matters")
	require.NoError(t, err)

	queries := conn.Queries()
	require.Len(t, queries, 4)
	assert.Contains(t, queries[0].SQL, "pg_class")
	assert.NotContains(t, queries[0].SQL, "information_schema", "existence must not depend on table privileges")
	assert.Contains(t, queries[1].SQL, "information_schema.columns")
	assert.Contains(t, queries[1].SQL, "ORDER BY ordinal_position")
	assert.Contains(t, queries[2].SQL, "pg_policies")
	assert.Contains(t, queries[3].SQL, "pg_indexes")
}

func TestFetchTableMetadata_BindsTableName(t *testing.T) {
	conn := &databasetest.Conn{Responses: []databasetest.Response{
		{Match: "pg_class", Rows: [][]any{{true}}},
		{Match: "information_schema.columns"},
		{Match: "pg_policies"},
		{Match: "pg_indexes"},
	}}

	meta, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "o'brien")
	require.NoError(t, err)
	assert.Empty(t, meta.Columns)

	for _, q := range conn.Queries() {
		assert.NotContains(t, q.SQL, "o'brien")
		assert.NotContains(t, q.SQL, "public'")
		assert.Equal(t, []any{"public", "o'brien"}, q.Args)
	}
}

func TestFetchTableMetadata_NoPolicies(t *testing.T) {
	conn := &databasetest.Conn{Responses: []databasetest.Response{
		{Match: "pg_class", Rows: [][]any{{true}}},
		{Match: "information_schema.columns", Rows: [][]any{{"id", "bigint", "NO", nil}}},
		{Match: "pg_policies"},
		{Match: "pg_indexes"},
	}}

	meta, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "audit_log")
	require.NoError(t, err)

	assert.NotNil(t, meta.Policies)
	assert.Empty(t, meta.Policies)
	assert.Empty(t, meta.Indexes)
}

func TestFetchTableMetadata_UnknownTable(t *testing.T) {
	conn := &databasetest.Conn{Responses: []databasetest.Response{
		{Match: "pg_class", Rows: [][]any{{false}}},
	}}

	_, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "nope")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "public.nope does not exist")

	assert.Len(t, conn.Queries(), 1, "no metadata queries for a missing table")
	assert.Equal(t, 1, conn.Closed())
}

func TestFetchTableMetadata_QueryErrorClosesConnection(t *testing.T) {
	queryErr := errs.New(errs.ErrKindQueryFailed, "boom")
	conn := &databasetest.Conn{Responses: []databasetest.Response{
		{Match: "pg_class", Rows: [][]any{{true}}},
		{Match: "information_schema.columns", Rows: [][]any{{"id", "uuid", "NO", nil}}},
		{Match: "pg_policies", Err: queryErr},
	}}

	_, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "matters")
	require.Error(t, err)
	assert.Equal(t, errs.ErrKindQueryFailed, errs.KindOf(err))
	assert.Equal(t, 1, conn.Closed())
}

func TestFetchTableMetadata_DialError(t *testing.T) {
	dialErr := errs.Wrap(errs.ErrKindConnectionFailed, "failed to connect", errors.New("connection refused"))
	conn := &databasetest.Conn{DialErr: dialErr}

	_, err := schema.FetchTableMetadata(context.Background(), conn.Dialer(), "public", "matters")
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Empty(t, conn.Queries())
	assert.Equal(t, 0, conn.Closed())
}
