// Package query provides a fluent API for building database queries using a
// structured QueryDSL.
package query

// QueryBuilder provides a fluent API for building QueryDSL structures.
// Successive Where calls are conjoined with AND.
type QueryBuilder struct {
	query QueryDSL
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		query: QueryDSL{},
	}
}

// From starts a builder from an existing query.
func From(dsl QueryDSL) *QueryBuilder {
	return &QueryBuilder{query: dsl.Clone()}
}

// Build returns the constructed QueryDSL object.
func (qb *QueryBuilder) Build() QueryDSL {
	return qb.query.Clone()
}

// And conjoins an already built filter with the current filters.
func (qb *QueryBuilder) And(filter QueryFilter) *QueryBuilder {
	qb.query.Filters = Conjoin(qb.query.Filters, filter)
	return qb
}

// Where begins the construction of a filter condition for a specific field.
func (qb *QueryBuilder) Where(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{
		parent: qb,
		field:  field,
	}
}

// FilterConditionBuilder is used to build a single filter condition (e.g., field = value).
type FilterConditionBuilder struct {
	parent *QueryBuilder
	field  string
}

// Eq adds an equality condition to the query.
func (fcb *FilterConditionBuilder) Eq(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorEq, value)
}

// Lte adds a less-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Lte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLte, value)
}

// Gte adds a greater-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Gte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGte, value)
}

// In adds an "in" condition, checking if a field's value is within a set of values.
func (fcb *FilterConditionBuilder) In(values ...FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorIn, toAnySlice(values))
}

// Contains adds a condition to check if a string field contains a substring.
func (fcb *FilterConditionBuilder) Contains(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorContains, value)
}

func (fcb *FilterConditionBuilder) addCondition(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	condition := &FilterCondition{
		Field:    fcb.field,
		Operator: operator,
		Value:    value,
	}
	return fcb.parent.And(QueryFilter{Condition: condition})
}

// OrderBy adds a sorting configuration to the query.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.query.Sort = append(qb.query.Sort, SortConfiguration{
		Field:     field,
		Direction: direction,
	})
	return qb
}

// Limit sets the maximum number of records to be returned by the query.
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	if qb.query.Pagination == nil {
		qb.query.Pagination = &PaginationOptions{}
	}
	qb.query.Pagination.Limit = limit
	return qb
}

// Offset sets the starting point for the result set.
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	if qb.query.Pagination == nil {
		qb.query.Pagination = &PaginationOptions{}
	}
	qb.query.Pagination.Offset = &offset
	return qb
}

func toAnySlice(values []FilterValue) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
