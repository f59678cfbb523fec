package sqlite

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/core/schema"
)

// likeEscape is the escape character declared on every generated LIKE.
const likeEscape = `\`

// SqliteQueryGeneratorFactory implements the QueryGeneratorFactory for SQLite.
type SqliteQueryGeneratorFactory struct{}

// NewSqliteQueryGeneratorFactory creates a new instance of SqliteQueryGeneratorFactory.
func NewSqliteQueryGeneratorFactory() *SqliteQueryGeneratorFactory {
	return &SqliteQueryGeneratorFactory{}
}

// CreateGenerator creates a new SqliteQuery (which is a QueryGenerator) for the given schema.
func (f *SqliteQueryGeneratorFactory) CreateGenerator(schema *schema.SchemaDefinition) (query.QueryGenerator, error) {
	return NewSqliteQuery(schema)
}

// SqliteQuery is a schema-aware query generator for SQLite. Every referenced
// field must be declared in the schema, and values are converted to the
// column's storage type before being bound.
type SqliteQuery struct {
	schema *schema.SchemaDefinition
}

// NewSqliteQuery creates a new schema-aware query generator for SQLite.
func NewSqliteQuery(schema *schema.SchemaDefinition) (*SqliteQuery, error) {
	if schema == nil {
		return nil, fmt.Errorf("SchemaDefinition cannot be nil")
	}
	if schema.Name == "" {
		return nil, fmt.Errorf("schema must define a table name")
	}
	return &SqliteQuery{schema: schema}, nil
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EscapeLike escapes the LIKE meta-characters in s so that it matches literally
// under ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

func (s *SqliteQuery) getFieldSQL(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("field path cannot be empty")
	}
	if !s.schema.HasField(field) {
		return "", fmt.Errorf("field '%s' not found in schema", field)
	}
	return quoteIdentifier(field), nil
}

// prepareValueForQuery converts a Go value into the representation SQLite
// stores for the field: booleans as 0/1, numbers parsed from text, and
// temporal values as ISO text.
func (s *SqliteQuery) prepareValueForQuery(fieldName string, value any) (any, error) {
	field := s.schema.FindField(fieldName)
	if field == nil {
		return nil, fmt.Errorf("field '%s' not found in schema for value preparation", fieldName)
	}

	if value == nil {
		return nil, nil
	}

	switch field.Type {
	case schema.FieldTypeBoolean:
		if b, ok := query.ToBool(value); ok {
			if b {
				return 1, nil
			}
			return 0, nil
		}
		if f, ok := value.(float64); ok && (f == 0 || f == 1) {
			return int(f), nil
		}
		return nil, fmt.Errorf("expected boolean for FieldTypeBoolean, got %T for field '%s'", value, fieldName)

	case schema.FieldTypeInteger, schema.FieldTypeNumber, schema.FieldTypeDecimal:
		if coerced, ok := schema.Coerce(value, field.Type); ok {
			return coerced, nil
		}
		return value, nil

	case schema.FieldTypeDate:
		if t, ok := value.(time.Time); ok {
			return t.Format(schema.DateLayout), nil
		}
		return value, nil

	case schema.FieldTypeDateTime:
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format(time.RFC3339), nil
		}
		return value, nil

	case schema.FieldTypeEnum:
		if strVal, ok := value.(string); ok {
			return strVal, nil
		}
		return fmt.Sprintf("%v", value), nil

	default:
		return value, nil
	}
}

// GenerateSelectSQL creates a complete SQL SELECT query string and its corresponding
// parameters from a `query.QueryDSL` object.
func (s *SqliteQuery) GenerateSelectSQL(dsl *query.QueryDSL) (string, []any, error) {
	if dsl == nil {
		return "", nil, fmt.Errorf("QueryDSL cannot be nil")
	}

	var sb strings.Builder
	var queryParams []any

	sb.WriteString(fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(s.schema.Name)))

	where, err := s.whereSQL(dsl.Filters, &queryParams)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)

	if len(dsl.Sort) > 0 {
		orderByClauses := make([]string, 0, len(dsl.Sort))
		for _, sortCfg := range dsl.Sort {
			accessor, err := s.getFieldSQL(sortCfg.Field)
			if err != nil {
				return "", nil, fmt.Errorf("sort error: %w", err)
			}
			direction := query.SortDirectionAsc
			if sortCfg.Direction == query.SortDirectionDesc {
				direction = query.SortDirectionDesc
			}
			orderByClauses = append(orderByClauses, fmt.Sprintf("%s %s", accessor, strings.ToUpper(string(direction))))
		}
		sb.WriteString(" ORDER BY " + strings.Join(orderByClauses, ", "))
	}

	if dsl.Pagination != nil {
		limit := dsl.Pagination.Limit
		if limit <= 0 {
			limit = -1
		}
		sb.WriteString(fmt.Sprintf(" LIMIT %d", limit))
		if dsl.Pagination.Offset != nil && *dsl.Pagination.Offset > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", *dsl.Pagination.Offset))
		}
	}

	return sb.String() + ";", queryParams, nil
}

// GenerateCountSQL creates a COUNT query over the rows matched by the DSL's filters.
func (s *SqliteQuery) GenerateCountSQL(dsl *query.QueryDSL) (string, []any, error) {
	if dsl == nil {
		return "", nil, fmt.Errorf("QueryDSL cannot be nil")
	}
	var queryParams []any
	where, err := s.whereSQL(dsl.Filters, &queryParams)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s;", quoteIdentifier(s.schema.Name), where), queryParams, nil
}

func (s *SqliteQuery) whereSQL(filter *query.QueryFilter, params *[]any) (string, error) {
	if filter == nil {
		return "", nil
	}
	clause, err := s.buildWhereClause(filter, params)
	if err != nil {
		return "", fmt.Errorf("error building WHERE clause: %w", err)
	}
	if clause == "" {
		return "", nil
	}
	return " WHERE " + clause, nil
}

// buildWhereClause recursively builds the WHERE clause from a QueryFilter.
func (s *SqliteQuery) buildWhereClause(filter *query.QueryFilter, params *[]any) (string, error) {
	if filter.Condition != nil {
		return s.buildCondition(filter.Condition, params)
	}
	if filter.Group != nil {
		if filter.Group.Operator == "" {
			return "", fmt.Errorf("logical operator missing in filter group")
		}
		var clauses []string
		for i := range filter.Group.Conditions {
			clause, err := s.buildWhereClause(&filter.Group.Conditions[i], params)
			if err != nil {
				return "", err
			}
			if clause != "" {
				clauses = append(clauses, clause)
			}
		}
		if len(clauses) == 0 {
			return "", nil
		}
		op := strings.ToUpper(string(filter.Group.Operator))
		return fmt.Sprintf("(%s)", strings.Join(clauses, " "+op+" ")), nil
	}
	return "", fmt.Errorf("invalid filter structure: neither Condition nor Group is set")
}

// buildCondition translates a single FilterCondition into a SQL condition string.
func (s *SqliteQuery) buildCondition(cond *query.FilterCondition, params *[]any) (string, error) {
	accessor, err := s.getFieldSQL(cond.Field)
	if err != nil {
		return "", err
	}

	switch cond.Operator {
	case query.ComparisonOperatorExists:
		return fmt.Sprintf("%s IS NOT NULL", accessor), nil
	case query.ComparisonOperatorNotExists:
		return fmt.Sprintf("%s IS NULL", accessor), nil
	case query.ComparisonOperatorIn, query.ComparisonOperatorNin:
		return s.buildMembership(accessor, cond, params)
	case query.ComparisonOperatorContains, query.ComparisonOperatorNotContains,
		query.ComparisonOperatorStartsWith, query.ComparisonOperatorEndsWith:
		return buildLike(accessor, cond, params), nil
	}

	preparedValue, err := s.prepareValueForQuery(cond.Field, cond.Value)
	if err != nil {
		return "", fmt.Errorf("failed to prepare value for condition field '%s': %w", cond.Field, err)
	}

	var op string
	switch cond.Operator {
	case query.ComparisonOperatorEq:
		op = "="
	case query.ComparisonOperatorNeq:
		op = "!="
	case query.ComparisonOperatorLt:
		op = "<"
	case query.ComparisonOperatorLte:
		op = "<="
	case query.ComparisonOperatorGt:
		op = ">"
	case query.ComparisonOperatorGte:
		op = ">="
	default:
		return "", fmt.Errorf("unsupported comparison operator for direct SQL: %s", cond.Operator)
	}
	*params = append(*params, preparedValue)
	return fmt.Sprintf("%s %s ?", accessor, op), nil
}

func (s *SqliteQuery) buildMembership(accessor string, cond *query.FilterCondition, params *[]any) (string, error) {
	vals, ok := cond.Value.([]any)
	if !ok && cond.Value != nil {
		vals = []any{cond.Value}
	}
	if len(vals) == 0 {
		if cond.Operator == query.ComparisonOperatorIn {
			return "1=0", nil
		}
		return "1=1", nil
	}

	placeholders := strings.Repeat("?,", len(vals)-1) + "?"
	for _, v := range vals {
		prepared, err := s.prepareValueForQuery(cond.Field, v)
		if err != nil {
			return "", fmt.Errorf("failed to prepare value for condition field '%s': %w", cond.Field, err)
		}
		*params = append(*params, prepared)
	}
	op := "IN"
	if cond.Operator == query.ComparisonOperatorNin {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", accessor, op, placeholders), nil
}

func buildLike(accessor string, cond *query.FilterCondition, params *[]any) string {
	term := EscapeLike(fmt.Sprintf("%v", cond.Value))
	op := "LIKE"
	switch cond.Operator {
	case query.ComparisonOperatorStartsWith:
		term = term + "%"
	case query.ComparisonOperatorEndsWith:
		term = "%" + term
	case query.ComparisonOperatorNotContains:
		op = "NOT LIKE"
		term = "%" + term + "%"
	default:
		term = "%" + term + "%"
	}
	*params = append(*params, term)
	return fmt.Sprintf(`%s %s ? ESCAPE '%s'`, accessor, op, likeEscape)
}

// GenerateInsertSQL creates a SQL INSERT query. It includes the `RETURNING *` clause
// for atomic retrieval of inserted data. NOTE: Requires SQLite version 3.35.0+.
func (s *SqliteQuery) GenerateInsertSQL(records []map[string]any) (string, []any, error) {
	if len(records) == 0 {
		return "", nil, fmt.Errorf("no records provided for insert")
	}

	fieldSet := make(map[string]struct{})
	for _, record := range records {
		for fieldName := range record {
			if !s.schema.HasField(fieldName) {
				return "", nil, fmt.Errorf("field '%s' not found in schema", fieldName)
			}
			fieldSet[fieldName] = struct{}{}
		}
	}
	if len(fieldSet) == 0 {
		return "", nil, fmt.Errorf("no valid fields found in records")
	}

	fields := make([]string, 0, len(fieldSet))
	for fieldName := range fieldSet {
		fields = append(fields, fieldName)
	}
	sort.Strings(fields)

	quotedFields := make([]string, len(fields))
	for i, field := range fields {
		quotedFields[i] = quoteIdentifier(field)
	}
	rowPlaceholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ") + ")"

	valuesClauses := make([]string, 0, len(records))
	queryParams := make([]any, 0, len(records)*len(fields))
	for _, record := range records {
		for _, fieldName := range fields {
			preparedValue, err := s.prepareValueForQuery(fieldName, record[fieldName])
			if err != nil {
				return "", nil, fmt.Errorf("error preparing value for field '%s': %w", fieldName, err)
			}
			queryParams = append(queryParams, preparedValue)
		}
		valuesClauses = append(valuesClauses, rowPlaceholders)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s RETURNING *;",
		quoteIdentifier(s.schema.Name), strings.Join(quotedFields, ", "), strings.Join(valuesClauses, ", "))
	return sql, queryParams, nil
}
