package schema

// ColumnInfo describes a single column in a table
type ColumnInfo struct {
	Name string `json:"name" yaml:"name"`
	// DataType is the information_schema type name: text, uuid, integer, ...
	DataType string `json:"data_type" yaml:"data_type"`
	// Nullable is YES or NO, as information_schema reports it.
	Nullable string `json:"is_nullable" yaml:"is_nullable"`
	// Default is nil if the column has no default.
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// PolicyInfo describes a row-level-security policy attached to a table.
type PolicyInfo struct {
	Name string `json:"name" yaml:"name"`
	// Command is SELECT, INSERT, UPDATE, DELETE or ALL.
	Command    string   `json:"command" yaml:"command"`
	Permissive bool     `json:"permissive" yaml:"permissive"`
	Roles      []string `json:"roles" yaml:"roles"`
	Using      *string  `json:"using,omitempty" yaml:"using,omitempty"`
	WithCheck  *string  `json:"with_check,omitempty" yaml:"with_check,omitempty"`
}

// IndexInfo describes an index on a table.
type IndexInfo struct {
	Name       string `json:"name" yaml:"name"`
	Definition string `json:"definition" yaml:"definition"`
}

// TableMetadata is the live structure of one table.
type TableMetadata struct {
	Schema   string       `json:"schema" yaml:"schema"`
	Table    string       `json:"table" yaml:"table"`
	Columns  []ColumnInfo `json:"columns" yaml:"columns"`
	Policies []PolicyInfo `json:"policies" yaml:"policies"`
	Indexes  []IndexInfo  `json:"indexes" yaml:"indexes"`
}
