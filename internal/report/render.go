package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/koustreak/schemadrift/internal/errs"
	"go.yaml.in/yaml/v3"
)

// Output formats accepted by Encode.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatText, "":
		return Render(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown format %q", format))
	}
}

// Render writes the plain-text report: header, columns, policies, index
// names, then the reference text verbatim.
func Render(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "=== Schema Comparison Report: %s ===\n", r.Table)

	fmt.Fprintln(bw, "\nDatabase Columns:")
	for _, col := range r.Columns {
		def := "None"
		if col.Default != nil {
			def = *col.Default
		}
		fmt.Fprintf(bw, "- %s: %s (nullable: %s, default: %s)\n", col.Name, col.DataType, col.Nullable, def)
	}

	fmt.Fprintln(bw, "\nDatabase Policies:")
	for _, pol := range r.Policies {
		fmt.Fprintf(bw, "- %s (%s)\n", pol.Name, pol.Command)
	}

	fmt.Fprintln(bw, "\nDatabase Indexes:")
	for _, idx := range r.Indexes {
		fmt.Fprintf(bw, "- %s\n", idx.Name)
	}

	fmt.Fprintln(bw, "\nPlease compare with your schema file content:")
	if r.Reference != nil {
		fmt.Fprintln(bw, r.Reference.Text)
	}

	return bw.Flush()
}
