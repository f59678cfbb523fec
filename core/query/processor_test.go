package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/asaidimu/go-filterable/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRows() []schema.Document {
	return []schema.Document{
		{"id": 1, "title": "Learning Go", "status": "published", "published_on": "2024-01-10", "author_id": int64(1), "featured": true},
		{"id": 2, "title": "Rust notes", "status": "draft", "published_on": "2024-02-15", "author_id": int64(2), "featured": false},
		{"id": 3, "title": "100% GO", "status": "published", "published_on": "2024-03-01", "author_id": int64(1), "featured": false},
		{"id": 4, "title": "Untitled", "status": "archived", "published_on": nil, "author_id": int64(3), "featured": false},
	}
}

func ids(rows []schema.Document) []int {
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["id"].(int))
	}
	return out
}

// where builds a single condition for operators the fluent builder omits.
func where(field string, op ComparisonOperator, value any) QueryFilter {
	return QueryFilter{Condition: &FilterCondition{Field: field, Operator: op, Value: value}}
}

func TestNewDataProcessor(t *testing.T) {
	p := NewDataProcessor(nil)
	assert.NotNil(t, p)
	assert.NotNil(t, p.goFilterFunctions)
	assert.NotNil(t, p.logger)

	p = NewDataProcessor(zap.NewNop())
	assert.NotNil(t, p)
}

func TestDataProcessor_RegisterFilterFunction(t *testing.T) {
	p := NewDataProcessor(nil)
	fn := func(doc schema.Document, field string, args FilterValue) (bool, error) { return true, nil }
	p.RegisterFilterFunction("customOp", fn)
	assert.Contains(t, p.goFilterFunctions, ComparisonOperator("customOp"))
}

func TestDataProcessor_FilterRows(t *testing.T) {
	p := NewDataProcessor(nil)

	tests := []struct {
		name     string
		build    func(*QueryBuilder) *QueryBuilder
		expected []int
	}{
		{"no filter", func(qb *QueryBuilder) *QueryBuilder { return qb }, []int{1, 2, 3, 4}},
		{"contains is case-insensitive", func(qb *QueryBuilder) *QueryBuilder { return qb.Where("title").Contains("go") }, []int{1, 3}},
		{"contains literal percent", func(qb *QueryBuilder) *QueryBuilder { return qb.Where("title").Contains("100%") }, []int{3}},
		{"eq string against int64", func(qb *QueryBuilder) *QueryBuilder { return qb.Where("author_id").Eq("1") }, []int{1, 3}},
		{"eq string against bool", func(qb *QueryBuilder) *QueryBuilder { return qb.Where("featured").Eq("true") }, []int{1}},
		{"in", func(qb *QueryBuilder) *QueryBuilder { return qb.Where("status").In("draft", "archived") }, []int{2, 4}},
		{"nin", func(qb *QueryBuilder) *QueryBuilder { return qb.And(where("status", ComparisonOperatorNin, []any{"draft", "archived"})) }, []int{1, 3}},
		{"date range skips null", func(qb *QueryBuilder) *QueryBuilder {
			return qb.Where("published_on").Gte("2024-02-01").Where("published_on").Lte("2024-12-31")
		}, []int{2, 3}},
		{"inverted range is empty", func(qb *QueryBuilder) *QueryBuilder {
			return qb.Where("published_on").Gte("2024-12-31").Where("published_on").Lte("2024-01-01")
		}, []int{}},
		{"not exists", func(qb *QueryBuilder) *QueryBuilder { return qb.And(where("published_on", ComparisonOperatorNotExists, true)) }, []int{4}},
		{"starts with", func(qb *QueryBuilder) *QueryBuilder { return qb.And(where("title", ComparisonOperatorStartsWith, "rust")) }, []int{2}},
		{"or group", func(qb *QueryBuilder) *QueryBuilder {
			return qb.And(QueryFilter{Group: &FilterGroup{Operator: LogicalOperatorOr, Conditions: []QueryFilter{
				where("status", ComparisonOperatorEq, "draft"),
				where("featured", ComparisonOperatorEq, true),
			}}})
		}, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsl := tt.build(NewQueryBuilder()).Build()
			rows, err := p.FilterRows(sampleRows(), dsl.Filters)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(rows))
		})
	}
}

func TestDataProcessor_FilterRowsErrors(t *testing.T) {
	p := NewDataProcessor(nil)

	_, err := p.FilterRows(sampleRows(), &QueryFilter{Condition: &FilterCondition{Field: "title", Operator: "fuzzy", Value: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered Go filter function")

	_, err = p.FilterRows(sampleRows(), &QueryFilter{Condition: &FilterCondition{Field: "status", Operator: ComparisonOperatorIn, Value: "draft"}})
	require.Error(t, err)
}

func TestDataProcessor_CustomPredicate(t *testing.T) {
	p := NewDataProcessor(nil)
	boom := errors.New("boom")
	p.RegisterFilterFunction("titlecase", func(doc schema.Document, field string, args FilterValue) (bool, error) {
		s, ok := doc[field].(string)
		if !ok {
			return false, boom
		}
		return s != "" && strings.ToUpper(s[:1]) == s[:1], nil
	})

	rows, err := p.FilterRows(sampleRows(), &QueryFilter{Condition: &FilterCondition{Field: "title", Operator: "titlecase"}})
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = p.FilterRows(sampleRows(), &QueryFilter{Condition: &FilterCondition{Field: "id", Operator: "titlecase"}})
	assert.ErrorIs(t, err, boom)
}

func TestDataProcessor_Process(t *testing.T) {
	p := NewDataProcessor(nil)
	dsl := NewQueryBuilder().
		And(where("status", ComparisonOperatorNeq, "archived")).
		OrderBy("published_on", SortDirectionDesc).
		Limit(2).
		Build()

	rows, total, err := p.Process(sampleRows(), &dsl)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []int{3, 2}, ids(rows))

	dsl = NewQueryBuilder().OrderBy("id", SortDirectionAsc).Offset(3).Limit(10).Build()
	rows, total, err = p.Process(sampleRows(), &dsl)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []int{4}, ids(rows))
}

func TestDataProcessor_Match(t *testing.T) {
	p := NewDataProcessor(nil)
	filter := NewQueryBuilder().Where("title").Contains("rust").Build().Filters

	ok, err := p.Match(context.Background(), filter, sampleRows()[1])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Match(context.Background(), nil, sampleRows()[0])
	require.NoError(t, err)
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Match(ctx, filter, sampleRows()[1])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDataProcessor_ContainsFoldsASCIIOnly(t *testing.T) {
	p := NewDataProcessor(nil)
	tests := []struct {
		title    string
		term     string
		expected bool
	}{
		{"Learning GO", "go", true},
		{"learning go", "GO", true},
		{"CAFÉ notes", "café", false},
		{"CAFÉ notes", "CAFÉ", true},
		{"Ärger", "ärger", false},
	}
	for _, tt := range tests {
		filter := NewQueryBuilder().Where("title").Contains(tt.term).Build().Filters
		ok, err := p.Match(context.Background(), filter, schema.Document{"title": tt.title})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, ok, "%q contains %q", tt.title, tt.term)
	}
}

func TestSortRows_NilsFirst(t *testing.T) {
	rows := sampleRows()
	SortRows(rows, []SortConfiguration{{Field: "published_on", Direction: SortDirectionAsc}})
	assert.Equal(t, []int{4, 1, 2, 3}, ids(rows))
}

func TestPaginate(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, rows, Paginate(rows, nil))
	far, near := 10, 1
	assert.Empty(t, Paginate(rows, &PaginationOptions{Limit: 2, Offset: &far}))
	assert.Equal(t, []int{2, 3}, ids(Paginate(rows, &PaginationOptions{Limit: 2, Offset: &near})))
}

func TestLooseEqualAndCompare(t *testing.T) {
	assert.True(t, LooseEqual(int64(3), "3"))
	assert.True(t, LooseEqual(2.0, 2))
	assert.False(t, LooseEqual("03", "3"))
	assert.True(t, LooseEqual(false, "0"))
	assert.False(t, LooseEqual(nil, "x"))
	assert.True(t, LooseEqual(nil, nil))

	assert.Equal(t, -1, Compare("2024-01-01", "2024-01-02"))
	assert.Equal(t, 1, Compare(int64(10), "9"))
	assert.Equal(t, 0, Compare(1.5, 1.5))
}
