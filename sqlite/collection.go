package sqlite

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-filterable/core/filter"
	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/core/schema"
)

// Collection is a filterable query over one table. Narrowing only builds the
// query; Fetch and Count execute it.
type Collection struct {
	query.Narrowing
	interactor *SQLiteInteractor
}

var _ filter.Collection = (*Collection)(nil)

// NewCollection returns an unfiltered collection over the schema's table.
func NewCollection(interactor *SQLiteInteractor, sc *schema.SchemaDefinition) *Collection {
	return &Collection{Narrowing: query.NewNarrowing(sc), interactor: interactor}
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

// WhereContains binds value as a LIKE parameter with its pattern characters
// escaped by the query generator.
func (c *Collection) WhereContains(column, value string) filter.Collection {
	return c.with(c.Contains(column, value))
}

func (c *Collection) with(n query.Narrowing) *Collection {
	return &Collection{Narrowing: n, interactor: c.interactor}
}

// Fetch runs the query, ordered by sort and windowed by page. An invalid date
// bound is reported here rather than matching nothing.
func (c *Collection) Fetch(ctx context.Context, sort []query.SortConfiguration, page *query.PaginationOptions) ([]schema.Document, error) {
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", c.Schema().Name, err)
	}
	dsl := c.Window(sort, page)
	return c.interactor.SelectDocuments(ctx, c.Schema(), &dsl)
}

// Count returns the number of rows the filters match.
func (c *Collection) Count(ctx context.Context) (int, error) {
	if err := c.Err(); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.Schema().Name, err)
	}
	dsl := c.DSL()
	return c.interactor.CountDocuments(ctx, c.Schema(), &dsl)
}
