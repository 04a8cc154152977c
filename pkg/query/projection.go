// Package query builds parameterized SELECT statements over a projection of
// logical field names onto qualified table columns.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps logical field names to qualified column references
// (alias.column) for one table. Field names are what callers filter and sort
// by; they never reach SQL unless mapped here.
type ProjectionMap struct {
	schema     string
	table      string
	alias      string
	columns    map[string]string
	columnList []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps column to the logical field name. Columns are selected in
// the order they are projected, which must match the scan order.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// Table returns the qualified table reference with its alias (schema.table alias).
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Has reports whether field is projected.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.columns[field]
	return ok
}

// Column returns the qualified column for field, or field itself when it is
// not projected so callers can reference computed expressions.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

// Columns returns every projected column as a comma-separated select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}
