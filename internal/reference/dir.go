package reference

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/koustreak/schemadrift/internal/errs"
)

// Dir reads reference files from a local directory.
type Dir struct {
	root string
}

// NewDir returns a Source reading <root>/<table>.sql. An empty root uses DefaultDir.
func NewDir(root string) *Dir {
	if root == "" {
		root = DefaultDir
	}
	return &Dir{root: root}
}

// Path returns the file that holds the reference for table.
func (d *Dir) Path(table string) string {
	return filepath.Join(d.root, table+Extension)
}

// Load reads the whole file for table.
func (d *Dir) Load(_ context.Context, table string) (*Document, error) {
	if err := checkName(table); err != nil {
		return nil, err
	}

	path := d.Path(table)
	text, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(path, err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, errs.Wrap(errs.ErrKindPermissionDenied, "cannot read "+path, err)
		}
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to read "+path, err)
	}

	return &Document{Table: table, Location: path, Text: string(text)}, nil
}
