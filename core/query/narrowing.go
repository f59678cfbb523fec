package query

import (
	"fmt"

	"github.com/asaidimu/go-filterable/core/schema"
)

// Narrowing is the filter state shared by collections over one schema. Every
// method returns a new value; the receiver is never modified.
type Narrowing struct {
	schema *schema.SchemaDefinition
	dsl    QueryDSL
	err    error
}

// NewNarrowing returns an unfiltered narrowing over sc.
func NewNarrowing(sc *schema.SchemaDefinition) Narrowing {
	return Narrowing{schema: sc}
}

// Schema returns the schema the narrowing filters.
func (n Narrowing) Schema() *schema.SchemaDefinition {
	return n.schema
}

// DSL returns the query accumulated so far.
func (n Narrowing) DSL() QueryDSL {
	return n.dsl.Clone()
}

// Err returns the first invalid range bound recorded, if any.
func (n Narrowing) Err() error {
	return n.err
}

func (n Narrowing) HasColumn(column string) bool {
	return n.schema.HasField(column)
}

func (n Narrowing) ColumnType(column string) (schema.FieldType, bool) {
	return n.schema.TypeOf(column)
}

func (n Narrowing) Eq(column, value string) Narrowing {
	return n.with(From(n.dsl).Where(column).Eq(value))
}

func (n Narrowing) In(column string, values []string) Narrowing {
	args := make([]FilterValue, len(values))
	for i, v := range values {
		args[i] = v
	}
	return n.with(From(n.dsl).Where(column).In(args...))
}

func (n Narrowing) Gte(column, value string) Narrowing {
	return n.with(From(n.dsl).Where(column).Gte(value)).checkTemporal(column, value)
}

func (n Narrowing) Lte(column, value string) Narrowing {
	return n.with(From(n.dsl).Where(column).Lte(value)).checkTemporal(column, value)
}

func (n Narrowing) Contains(column, value string) Narrowing {
	return n.with(From(n.dsl).Where(column).Contains(value))
}

// Window returns the accumulated query ordered by sort and limited to page.
// A nil page leaves the result unbounded.
func (n Narrowing) Window(sort []SortConfiguration, page *PaginationOptions) QueryDSL {
	qb := From(n.dsl)
	for _, s := range sort {
		qb.OrderBy(s.Field, s.Direction)
	}
	if page != nil {
		qb.Limit(page.Limit)
		if page.Offset != nil {
			qb.Offset(*page.Offset)
		}
	}
	return qb.Build()
}

func (n Narrowing) with(qb *QueryBuilder) Narrowing {
	n.dsl = qb.Build()
	return n
}

// Dates are compared as text by SQLite and by Compare, so an unparseable
// bound would silently match nothing. The first one is recorded instead.
func (n Narrowing) checkTemporal(column, value string) Narrowing {
	if n.err != nil {
		return n
	}
	if t, ok := n.schema.TypeOf(column); ok && t.IsTemporal() {
		if _, err := schema.ParseTemporal(value); err != nil {
			n.err = fmt.Errorf("column %s: %w", column, err)
		}
	}
	return n
}
