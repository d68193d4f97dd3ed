package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps logical field names to table columns for one projection.
// Field names are the exported Go struct field identifiers; columns are the
// database column names qualified by the table alias.
type ProjectionMap struct {
	schema string
	table  string
	alias  string
	fields []string
	byName map[string]string
}

// NewProjectionMap creates an empty projection for the given table.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		byName: make(map[string]string),
	}
}

// Project registers a column under a logical field name. Registration order
// determines column order in SELECT clauses.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	p.fields = append(p.fields, field)
	p.byName[field] = fmt.Sprintf("%s.%s", p.alias, column)
	return p
}

// Table returns the aliased table reference for FROM clauses.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Columns returns the comma-separated column list in registration order.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.fields))
	for i, f := range p.fields {
		cols[i] = p.byName[f]
	}
	return strings.Join(cols, ", ")
}

// Column returns the qualified column for a logical field name.
// Unknown fields panic: a miss is a programming error, not runtime input.
func (p *ProjectionMap) Column(field string) string {
	col, ok := p.byName[field]
	if !ok {
		panic(fmt.Sprintf("query: unknown projection field %q", field))
	}
	return col
}

// Has reports whether the projection defines the given field.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.byName[field]
	return ok
}
