// Package query defines the Domain-Specific Language (DSL) for constructing
// database queries. A QueryDSL is the backend-neutral form of a narrowed
// resource collection: filters, sorting and pagination.
package query

import (
	"github.com/asaidimu/go-filterable/core/schema"
)

// Logical operators for combining filter conditions.
const (
	LogicalOperatorAnd schema.LogicalOperator = schema.LogicalAnd
	LogicalOperatorOr  schema.LogicalOperator = schema.LogicalOr
)

// ComparisonOperator defines the set of operators that can be used in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq          ComparisonOperator = "eq"
	ComparisonOperatorNeq         ComparisonOperator = "neq"
	ComparisonOperatorLt          ComparisonOperator = "lt"
	ComparisonOperatorLte         ComparisonOperator = "lte"
	ComparisonOperatorGt          ComparisonOperator = "gt"
	ComparisonOperatorGte         ComparisonOperator = "gte"
	ComparisonOperatorIn          ComparisonOperator = "in"
	ComparisonOperatorNin         ComparisonOperator = "nin"
	ComparisonOperatorContains    ComparisonOperator = "contains"
	ComparisonOperatorNotContains ComparisonOperator = "ncontains"
	ComparisonOperatorStartsWith  ComparisonOperator = "startswith"
	ComparisonOperatorEndsWith    ComparisonOperator = "endswith"
	ComparisonOperatorExists      ComparisonOperator = "exists"
	ComparisonOperatorNotExists   ComparisonOperator = "nexists"
)

// FilterValue represents the value used in a filter condition.
type FilterValue any

// FilterCondition defines a single condition for filtering the results of a query.
type FilterCondition struct {
	Field    string             // The field to apply the filter on.
	Operator ComparisonOperator // The comparison operator to use.
	Value    FilterValue        // The value to compare against.
}

// FilterGroup combines multiple filter conditions using a logical operator.
type FilterGroup struct {
	Operator   schema.LogicalOperator // The logical operator (AND, OR) to combine the conditions.
	Conditions []QueryFilter          // The list of conditions or nested groups.
}

// QueryFilter is a union type that can represent either a single filter condition
// or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"` // A single filter condition.
	Group     *FilterGroup     `json:",omitempty"` // A group of filter conditions.
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string        // The field to sort by.
	Direction SortDirection // The direction of the sort (ascending or descending).
}

// PaginationOptions defines how the query results should be paginated.
type PaginationOptions struct {
	Limit  int  // The maximum number of records to return.
	Offset *int `json:",omitempty"` // The starting offset.
}

// QueryDSL is the top-level structure that represents a complete read query.
type QueryDSL struct {
	Filters    *QueryFilter        `json:",omitempty"`
	Sort       []SortConfiguration `json:",omitempty"`
	Pagination *PaginationOptions  `json:",omitempty"`
}

// QueryResult represents the result of a database query.
type QueryResult struct {
	Data  []schema.Document `json:"data"`
	Count int               `json:"count"`
	Total int               `json:"total"`
}

// standardComparisonOperators is a set of all the standard, built-in comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:          {},
	ComparisonOperatorNeq:         {},
	ComparisonOperatorLt:          {},
	ComparisonOperatorLte:         {},
	ComparisonOperatorGt:          {},
	ComparisonOperatorGte:         {},
	ComparisonOperatorIn:          {},
	ComparisonOperatorNin:         {},
	ComparisonOperatorContains:    {},
	ComparisonOperatorNotContains: {},
	ComparisonOperatorStartsWith:  {},
	ComparisonOperatorEndsWith:    {},
	ComparisonOperatorExists:      {},
	ComparisonOperatorNotExists:   {},
}

// IsStandard checks if a comparison operator is one of the standard, built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// Conjoin returns a filter that is the logical AND of existing and next. An
// existing AND group is extended rather than nested. Neither argument is
// modified.
func Conjoin(existing *QueryFilter, next QueryFilter) *QueryFilter {
	if existing == nil {
		return &next
	}
	if existing.Group != nil && existing.Group.Operator == LogicalOperatorAnd {
		conditions := make([]QueryFilter, 0, len(existing.Group.Conditions)+1)
		conditions = append(conditions, existing.Group.Conditions...)
		conditions = append(conditions, next)
		return &QueryFilter{Group: &FilterGroup{Operator: LogicalOperatorAnd, Conditions: conditions}}
	}
	return &QueryFilter{Group: &FilterGroup{
		Operator:   LogicalOperatorAnd,
		Conditions: []QueryFilter{*existing, next},
	}}
}

// Clone returns a copy of the DSL whose slices and pointers can be changed
// without affecting the receiver. Filter trees are treated as immutable and
// shared.
func (d QueryDSL) Clone() QueryDSL {
	out := QueryDSL{Filters: d.Filters}
	if len(d.Sort) > 0 {
		out.Sort = append([]SortConfiguration(nil), d.Sort...)
	}
	if d.Pagination != nil {
		p := *d.Pagination
		if d.Pagination.Offset != nil {
			off := *d.Pagination.Offset
			p.Offset = &off
		}
		out.Pagination = &p
	}
	return out
}
