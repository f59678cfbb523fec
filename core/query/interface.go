// Package query defines the interfaces for generating database-specific queries
// from the abstract QueryDSL.
package query

import (
	"github.com/asaidimu/go-filterable/core/schema"
)

// QueryGeneratorFactory defines the interface for a factory that creates QueryGenerator instances.
// This allows for the creation of query generators that are specific to a given database schema.
type QueryGeneratorFactory interface {
	// CreateGenerator creates a new QueryGenerator for a specific schema.
	CreateGenerator(schema *schema.SchemaDefinition) (QueryGenerator, error)
}

// QueryGenerator translates the abstract query representation into a concrete
// SQL dialect.
type QueryGenerator interface {
	// GenerateSelectSQL creates a SQL SELECT query string and its corresponding parameters
	// from a QueryDSL object, translating filters, sorting and pagination.
	GenerateSelectSQL(dsl *QueryDSL) (string, []any, error)

	// GenerateCountSQL creates a SELECT COUNT(*) over the rows matched by the
	// DSL's filters. Sorting and pagination are ignored.
	GenerateCountSQL(dsl *QueryDSL) (string, []any, error)

	// GenerateInsertSQL creates a SQL INSERT query string and its parameters from a slice
	// of records. It supports both single and batch inserts.
	GenerateInsertSQL(records []map[string]any) (string, []any, error)
}
