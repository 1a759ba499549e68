// Package reference loads the hand-maintained schema definition of a table.
//
// All sources implement Source. Callers depend only on this package, never on
// the storage backend.
//
// Usage:
//
//	src := reference.NewDir("current-schema/tables")
//	doc, err := src.Load(ctx, "matters")
//	if errs.IsNotFound(err) { ... }
package reference

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/schemadrift/internal/errs"
)

// DefaultDir is where reference files live relative to the working directory.
const DefaultDir = "current-schema/tables"

// Extension is appended to the table name to form the file or object name.
const Extension = ".sql"

// Document is the raw reference text of one table.
type Document struct {
	Table string `json:"table" yaml:"table"`
	// Location is the path or object URL the text was read from.
	Location string `json:"location" yaml:"location"`
	Text     string `json:"text" yaml:"text"`
}

// Source loads reference documents by table name.
type Source interface {
	// Load returns the document for table. A missing document yields an
	// ErrKindNotFound error whose message names the location.
	Load(ctx context.Context, table string) (*Document, error)
}

// checkName rejects table names that cannot safely become a file name.
func checkName(table string) error {
	if table == "" {
		return errs.New(errs.ErrKindInvalidInput, "table name is empty")
	}
	if strings.ContainsAny(table, `/\`) || strings.Contains(table, "..") || strings.ContainsRune(table, 0) {
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("table name %q cannot be used as a file name", table))
	}
	return nil
}

func notFound(location string, cause error) error {
	return errs.Wrap(errs.ErrKindNotFound, "schema file not found at "+location, cause)
}
