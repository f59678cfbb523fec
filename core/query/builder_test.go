package query

import (
	"testing"

	"github.com/asaidimu/go-filterable/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueryBuilder(t *testing.T) {
	qb := NewQueryBuilder()
	assert.NotNil(t, qb)
	assert.Nil(t, qb.query.Filters)
	assert.Empty(t, qb.query.Sort)
	assert.Nil(t, qb.query.Pagination)
}

func TestQueryBuilder_Build(t *testing.T) {
	qb := NewQueryBuilder()
	dsl := qb.Build()
	assert.Equal(t, QueryDSL{}, dsl)

	qb.Limit(10)
	dsl = qb.Build()
	require.NotNil(t, dsl.Pagination)
	assert.Equal(t, 10, dsl.Pagination.Limit)
}

func TestQueryBuilder_BuildIsACopy(t *testing.T) {
	qb := NewQueryBuilder().Limit(10).OrderBy("name", SortDirectionAsc)
	first := qb.Build()

	qb.Limit(20).Where("name").Eq("x")
	assert.Equal(t, 10, first.Pagination.Limit)
	assert.Nil(t, first.Filters)
	assert.Equal(t, 20, qb.Build().Pagination.Limit)
}

func TestQueryBuilder_Where(t *testing.T) {
	tests := []struct {
		name     string
		buildFn  func(*QueryBuilder) *QueryBuilder
		expected FilterCondition
	}{
		{
			name:     "Eq condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("field1").Eq("value1") },
			expected: FilterCondition{Field: "field1", Operator: ComparisonOperatorEq, Value: "value1"},
		},
		{
			name:     "Lte condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("field1").Lte(10) },
			expected: FilterCondition{Field: "field1", Operator: ComparisonOperatorLte, Value: 10},
		},
		{
			name:     "Gte condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("published_on").Gte("2024-01-01") },
			expected: FilterCondition{Field: "published_on", Operator: ComparisonOperatorGte, Value: "2024-01-01"},
		},
		{
			name:     "In condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("status").In("a", "b") },
			expected: FilterCondition{Field: "status", Operator: ComparisonOperatorIn, Value: []any{"a", "b"}},
		},
		{
			name:     "Contains condition",
			buildFn:  func(qb *QueryBuilder) *QueryBuilder { return qb.Where("title").Contains("go") },
			expected: FilterCondition{Field: "title", Operator: ComparisonOperatorContains, Value: "go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsl := tt.buildFn(NewQueryBuilder()).Build()
			require.NotNil(t, dsl.Filters)
			require.NotNil(t, dsl.Filters.Condition)
			assert.Equal(t, tt.expected, *dsl.Filters.Condition)
		})
	}
}

func TestQueryBuilder_SuccessiveWheresAreConjoined(t *testing.T) {
	dsl := NewQueryBuilder().
		Where("title").Contains("go").
		Where("status").Eq("published").
		Where("author_id").In("1", "2").
		Build()

	require.NotNil(t, dsl.Filters)
	require.NotNil(t, dsl.Filters.Group)
	assert.Equal(t, schema.LogicalAnd, dsl.Filters.Group.Operator)
	require.Len(t, dsl.Filters.Group.Conditions, 3)
	assert.Equal(t, "title", dsl.Filters.Group.Conditions[0].Condition.Field)
	assert.Equal(t, "status", dsl.Filters.Group.Conditions[1].Condition.Field)
	assert.Equal(t, "author_id", dsl.Filters.Group.Conditions[2].Condition.Field)
}

func TestQueryBuilder_AndNestsOrGroups(t *testing.T) {
	or := QueryFilter{Group: &FilterGroup{Operator: LogicalOperatorOr, Conditions: []QueryFilter{
		{Condition: &FilterCondition{Field: "status", Operator: ComparisonOperatorEq, Value: "draft"}},
		{Condition: &FilterCondition{Field: "title", Operator: ComparisonOperatorContains, Value: "wip"}},
	}}}
	dsl := NewQueryBuilder().Where("featured").Eq(true).And(or).Build()

	require.NotNil(t, dsl.Filters.Group)
	require.Len(t, dsl.Filters.Group.Conditions, 2)
	nested := dsl.Filters.Group.Conditions[1].Group
	require.NotNil(t, nested)
	assert.Equal(t, LogicalOperatorOr, nested.Operator)
	assert.Len(t, nested.Conditions, 2)
}

func TestQueryBuilder_AndDoesNotMutateSource(t *testing.T) {
	base := NewQueryBuilder().Where("a").Eq(1).Where("b").Eq(2).Build()
	first := From(base).Where("c").Eq(3).Build()
	second := From(base).Where("d").Eq(4).Build()

	assert.Len(t, base.Filters.Group.Conditions, 2)
	assert.Equal(t, "c", first.Filters.Group.Conditions[2].Condition.Field)
	assert.Equal(t, "d", second.Filters.Group.Conditions[2].Condition.Field)
}

func TestQueryBuilder_SortAndPagination(t *testing.T) {
	dsl := NewQueryBuilder().OrderBy("published_on", SortDirectionDesc).OrderBy("title", SortDirectionAsc).Limit(25).Offset(50).Build()

	assert.Equal(t, []SortConfiguration{
		{Field: "published_on", Direction: SortDirectionDesc},
		{Field: "title", Direction: SortDirectionAsc},
	}, dsl.Sort)
	require.NotNil(t, dsl.Pagination)
	assert.Equal(t, 25, dsl.Pagination.Limit)
	require.NotNil(t, dsl.Pagination.Offset)
	assert.Equal(t, 50, *dsl.Pagination.Offset)
}
