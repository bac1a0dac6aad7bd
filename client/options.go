package client

import (
	"github.com/sqlpp-io/sqlpp/schema"
)

// Options shape one query or prepare call.
type Options struct {
	// NoParse skips the template pipeline and sends the SQL verbatim.
	NoParse bool
	// Params are the named template parameters.
	Params map[string]any
	// Args are the positional template arguments.
	Args []any

	// Compact returns rows as positional value slices instead of
	// name-keyed maps.
	Compact bool
	// FieldAttrs overlays caller attributes onto the returned field
	// descriptors, keyed by column name.
	FieldAttrs map[string]schema.Attrs
	// GetTableDefs enriches returned fields with the canonical
	// descriptors of Table (a "schema.table" key) from the schema cache.
	GetTableDefs bool
	// Table names the table whose descriptors GetTableDefs pulls in.
	Table string

	// Fields supplies per-parameter descriptors to prepared statements so
	// their to_bin hooks run at bind time, keyed by parameter name.
	Fields map[string]*schema.Field
}

func (o *Options) orDefault() *Options {
	if o == nil {
		return &Options{}
	}
	return o
}

// ResultSet is one shaped result set.
type ResultSet struct {
	Fields []*schema.Field
	// Rows holds name-keyed rows; nil when Compact was requested.
	Rows []map[string]any
	// Vals holds positional rows; set only when Compact was requested.
	Vals [][]any

	Affected int64
	LastID   int64
}
