// Package report assembles live table metadata and the reference schema text
// into one report and renders it for manual comparison.
package report

import (
	"context"
	"fmt"

	"github.com/koustreak/schemadrift/internal/database"
	"github.com/koustreak/schemadrift/internal/logger"
	"github.com/koustreak/schemadrift/internal/reference"
	"github.com/koustreak/schemadrift/internal/schema"
)

// DefaultSchema is the namespace inspected unless configured otherwise.
const DefaultSchema = "public"

// Report pairs the live structure of a table with its reference text.
type Report struct {
	Schema    string              `json:"schema" yaml:"schema"`
	Table     string              `json:"table" yaml:"table"`
	Columns   []schema.ColumnInfo `json:"columns" yaml:"columns"`
	Policies  []schema.PolicyInfo `json:"policies" yaml:"policies"`
	Indexes   []schema.IndexInfo  `json:"indexes" yaml:"indexes"`
	Reference *reference.Document `json:"reference" yaml:"reference"`
}

// Reporter builds reports. Every Build opens and closes its own connection.
type Reporter struct {
	dial   database.Dialer
	source reference.Source
	schema string
	log    *logger.Logger
}

// NewReporter creates a Reporter for tables in the given schema namespace.
// An empty schemaName means DefaultSchema; a nil log discards output.
func NewReporter(dial database.Dialer, source reference.Source, schemaName string, log *logger.Logger) *Reporter {
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reporter{dial: dial, source: source, schema: schemaName, log: log}
}

// Build fetches the metadata of table, then loads its reference document.
// Metadata errors are returned as is; a missing reference document yields an
// ErrKindNotFound error.
func (r *Reporter) Build(ctx context.Context, table string) (*Report, error) {
	log := r.log.With().Str("schema", r.schema).Str("table", table).Logger()

	log.Debug("fetching table metadata")
	meta, err := schema.FetchTableMetadata(ctx, r.dial, r.schema, table)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata of %s.%s: %w", r.schema, table, err)
	}
	log.With().
		Int("columns", len(meta.Columns)).
		Int("policies", len(meta.Policies)).
		Int("indexes", len(meta.Indexes)).
		Logger().
		Debug("table metadata fetched")

	doc, err := r.source.Load(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("loading reference schema: %w", err)
	}
	log.Debugf("reference schema loaded from %s", doc.Location)

	return &Report{
		Schema:    meta.Schema,
		Table:     meta.Table,
		Columns:   meta.Columns,
		Policies:  meta.Policies,
		Indexes:   meta.Indexes,
		Reference: doc,
	}, nil
}
