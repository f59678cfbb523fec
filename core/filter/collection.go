package filter

import "github.com/asaidimu/go-filterable/core/schema"

// Collection is a composable query over a resource. Narrowing never modifies
// the receiver: every Where call returns a new collection conjoining one more
// predicate with the existing ones. Errors caused by a predicate, such as a
// malformed date, surface when the concrete collection executes.
type Collection interface {
	// HasColumn reports whether the resource stores the column.
	HasColumn(column string) bool
	// ColumnType returns the declared type of the column.
	ColumnType(column string) (schema.FieldType, bool)

	WhereEq(column, value string) Collection
	WhereIn(column string, values []string) Collection
	WhereGte(column, value string) Collection
	WhereLte(column, value string) Collection
	// WhereContains matches rows whose column contains value literally. The
	// value is bound as a parameter; pattern characters in it carry no meaning.
	WhereContains(column, value string) Collection
}
