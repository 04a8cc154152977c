package query

import (
	"fmt"
	"reflect"
	"strings"
)

// placeholder marks a parameter position in a condition clause. Positions are
// numbered when the statement is built so conditions compose in any order.
const placeholder = "$%d"

type condition struct {
	clause string
	args   []any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
// Descending controls sort direction (false = ASC, true = DESC).
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses a comma-separated sort string into a SortField slice.
// Fields prefixed with "-" are descending, e.g. "Classification,-Confidence".
// Returns nil for empty input.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Builder constructs SELECT statements against a projection. Conditions are
// joined with AND and their parameters numbered from $1.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// Build returns a SELECT with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	return b.selectSQL(true, "")
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.Table(), where), args
}

// BuildPage returns a SELECT for one page of results. page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	offset := max(page-1, 0) * pageSize
	return b.selectSQL(true, fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset))
}

// BuildSingle returns a SELECT for the record whose idField equals id. Other
// conditions are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.Table(),
		b.projection.Column(idField),
	), []any{id}
}

// BuildFirst returns a SELECT limited to the first row matching the current
// conditions.
func (b *Builder) BuildFirst() (string, []any) {
	return b.selectSQL(false, " LIMIT 1")
}

// OrderByFields sets the sort order, overriding the default sort. Fields the
// projection does not map are dropped; if none remain the default applies.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = b.sort[:0]
	for _, f := range fields {
		if b.projection.Has(f.Field) {
			b.sort = append(b.sort, f)
		}
	}
	return b
}

// Where adds a raw condition. Each "$%d" in clause is numbered in order
// and bound to the matching element of args.
func (b *Builder) Where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

// WhereContains adds a case-insensitive substring match. No-op for nil or
// empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.Where(b.ilike(field), contains(*value))
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.Where(b.projection.Column(field)+" = "+placeholder, value)
}

// WhereAnyEquals adds a condition matching when any of fields equals value.
// No-op for nil values.
func (b *Builder) WhereAnyEquals(value any, fields ...string) *Builder {
	if isNil(value) || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " = " + placeholder
		args[i] = value
	}
	return b.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// WhereEmpty adds a condition on whether a text field is the empty string.
// No-op for a nil flag.
func (b *Builder) WhereEmpty(field string, empty *bool) *Builder {
	if empty == nil {
		return b
	}
	op := " <> ''"
	if *empty {
		op = " = ''"
	}
	return b.Where(b.projection.Column(field) + op)
}

// WhereIn adds an IN condition for multiple values. No-op for empty slices.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	marks := strings.TrimSuffix(strings.Repeat(placeholder+", ", len(values)), ", ")
	return b.Where(fmt.Sprintf("%s IN (%s)", b.projection.Column(field), marks), values...)
}

// WhereSearch adds a case-insensitive substring match across fields, any of
// which may match. No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	pattern := contains(*search)
	for i, field := range fields {
		clauses[i] = b.ilike(field)
		args[i] = pattern
	}
	return b.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) ilike(field string) string {
	return b.projection.Column(field) + ` ILIKE ` + placeholder + ` ESCAPE '\'`
}

func (b *Builder) selectSQL(ordered bool, suffix string) (string, []any) {
	where, args := b.where()
	orderBy := ""
	if ordered {
		orderBy = b.orderBy()
	}
	return fmt.Sprintf(
		"SELECT %s FROM %s%s%s%s",
		b.projection.Columns(),
		b.projection.Table(),
		where,
		orderBy,
		suffix,
	), args
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, len(b.conditions))
	var args []any
	for i, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			args = append(args, arg)
			clause = strings.Replace(clause, placeholder, fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses[i] = clause
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// contains wraps s in ILIKE wildcards, escaping any wildcards it already holds.
func contains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
