// Package memory provides a filterable collection over rows held in memory.
// It backs the admin server when no database is configured and gives tests a
// collection whose results can be checked row by row.
package memory

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/core/schema"
)

// Collection is an immutable query over a fixed set of rows.
type Collection struct {
	query.Narrowing
	rows      []schema.Document
	processor *query.DataProcessor
}

var _ filter.Collection = (*Collection)(nil)

// NewCollection returns a collection over rows. The rows are not copied and
// must not be modified afterwards. A nil processor gets a default one.
func NewCollection(sc *schema.SchemaDefinition, rows []schema.Document, processor *query.DataProcessor) *Collection {
	if processor == nil {
		processor = query.NewDataProcessor(nil)
	}
	return &Collection{Narrowing: query.NewNarrowing(sc), rows: rows, processor: processor}
}

func (c *Collection) WhereEq(column, value string) filter.Collection {
	return c.with(c.Eq(column, value))
}

func (c *Collection) WhereIn(column string, values []string) filter.Collection {
	return c.with(c.In(column, values))
}

func (c *Collection) WhereGte(column, value string) filter.Collection {
	return c.with(c.Gte(column, value))
}

func (c *Collection) WhereLte(column, value string) filter.Collection {
	return c.with(c.Lte(column, value))
}

func (c *Collection) WhereContains(column, value string) filter.Collection {
	return c.with(c.Contains(column, value))
}

func (c *Collection) with(n query.Narrowing) *Collection {
	return &Collection{Narrowing: n, rows: c.rows, processor: c.processor}
}

// Fetch returns the matching rows, ordered by sort and windowed by page.
func (c *Collection) Fetch(ctx context.Context, sort []query.SortConfiguration, page *query.PaginationOptions) ([]schema.Document, error) {
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", c.Schema().Name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dsl := c.Window(sort, page)
	rows, _, err := c.processor.Process(c.rows, &dsl)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.Schema().Name, err)
	}
	return rows, nil
}

// Count returns the number of matching rows.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := c.Err(); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.Schema().Name, err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows, err := c.processor.FilterRows(c.rows, c.DSL().Filters)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.Schema().Name, err)
	}
	return len(rows), nil
}
