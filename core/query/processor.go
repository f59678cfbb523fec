package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asaidimu/go-filterable/core/schema"
	"go.uber.org/zap"
)

// PredicateFunction is a pure Go function that performs custom filtering logic on a row.
// It takes a Row and returns true if the row passes the filter, false otherwise,
// and an error if evaluation fails.
type PredicateFunction func(doc schema.Document, field string, args FilterValue) (bool, error)

// DataProcessor evaluates a QueryDSL against rows held in memory. Standard
// operators are built in; custom operators are served by registered
// predicate functions.
type DataProcessor struct {
	goFilterFunctions map[ComparisonOperator]PredicateFunction
	mu                sync.RWMutex
	logger            *zap.Logger
}

// NewDataProcessor creates a new DataProcessor instance.
func NewDataProcessor(logger *zap.Logger) *DataProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataProcessor{
		goFilterFunctions: make(map[ComparisonOperator]PredicateFunction),
		logger:            logger,
	}
}

// RegisterFilterFunction registers a Go function for custom filtering.
func (p *DataProcessor) RegisterFilterFunction(operator ComparisonOperator, fn PredicateFunction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goFilterFunctions[operator] = fn
	p.logger.Info("Registered filter function", zap.String("operator", string(operator)))
}

// Process filters, sorts and paginates rows according to the DSL. It returns
// the page of rows and the number of rows that matched before pagination.
func (p *DataProcessor) Process(rows []schema.Document, dsl *QueryDSL) ([]schema.Document, int, error) {
	if dsl == nil {
		return rows, len(rows), nil
	}
	matched, err := p.FilterRows(rows, dsl.Filters)
	if err != nil {
		return nil, 0, fmt.Errorf("in-memory filter failed: %w", err)
	}
	total := len(matched)
	p.logger.Debug("Rows remaining after filters", zap.Int("count", total))

	SortRows(matched, dsl.Sort)
	return Paginate(matched, dsl.Pagination), total, nil
}

// FilterRows returns the rows that satisfy filter, in their original order.
// The input slice is not modified.
func (p *DataProcessor) FilterRows(rows []schema.Document, filter *QueryFilter) ([]schema.Document, error) {
	if filter == nil {
		out := make([]schema.Document, len(rows))
		copy(out, rows)
		return out, nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	filteredRows := make([]schema.Document, 0, len(rows))
	for _, row := range rows {
		passes, err := p.evaluate(row, filter)
		if err != nil {
			return nil, fmt.Errorf("error evaluating filter for row %+v: %w", row, err)
		}
		if passes {
			filteredRows = append(filteredRows, row)
		}
	}
	return filteredRows, nil
}

// Match evaluates a given data object against a set of QueryFilter conditions.
// It returns true if the data matches all filter conditions, false otherwise,
// and an error if the evaluation encounters an issue.
func (p *DataProcessor) Match(ctx context.Context, filters *QueryFilter, data schema.Document) (bool, error) {
	if filters == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.evaluate(data, filters)
}

func (p *DataProcessor) evaluate(row schema.Document, filter *QueryFilter) (bool, error) {
	if filter.Condition != nil {
		if !filter.Condition.Operator.IsStandard() {
			fn, ok := p.goFilterFunctions[filter.Condition.Operator]
			if !ok {
				return false, fmt.Errorf("unregistered Go filter function for operator: %s", filter.Condition.Operator)
			}
			return fn(row, filter.Condition.Field, filter.Condition.Value)
		}
		return evaluateStandardCondition(row, filter.Condition)
	}
	if filter.Group != nil {
		switch filter.Group.Operator {
		case schema.LogicalAnd:
			for i := range filter.Group.Conditions {
				passes, err := p.evaluate(row, &filter.Group.Conditions[i])
				if err != nil || !passes {
					return false, err
				}
			}
			return true, nil
		case schema.LogicalOr:
			for i := range filter.Group.Conditions {
				passes, err := p.evaluate(row, &filter.Group.Conditions[i])
				if err != nil {
					return false, err
				}
				if passes {
					return true, nil
				}
			}
			return false, nil
		default:
			return false, fmt.Errorf("unsupported logical operator for Go evaluation: %s", filter.Group.Operator)
		}
	}
	return false, fmt.Errorf("empty or invalid filter structure for Go evaluation")
}

// evaluateStandardCondition mirrors the SQLite semantics of each operator:
// NULL never compares, and substring matching is ASCII case-insensitive like LIKE.
func evaluateStandardCondition(row schema.Document, condition *FilterCondition) (bool, error) {
	fieldValue, present := row[condition.Field]
	if !present {
		fieldValue = nil
	}

	switch condition.Operator {
	case ComparisonOperatorExists:
		return fieldValue != nil, nil
	case ComparisonOperatorNotExists:
		return fieldValue == nil, nil
	}

	if fieldValue == nil {
		return false, nil
	}

	switch condition.Operator {
	case ComparisonOperatorEq:
		return LooseEqual(fieldValue, condition.Value), nil
	case ComparisonOperatorNeq:
		return !LooseEqual(fieldValue, condition.Value), nil
	case ComparisonOperatorGt:
		return Compare(fieldValue, condition.Value) > 0, nil
	case ComparisonOperatorGte:
		return Compare(fieldValue, condition.Value) >= 0, nil
	case ComparisonOperatorLt:
		return Compare(fieldValue, condition.Value) < 0, nil
	case ComparisonOperatorLte:
		return Compare(fieldValue, condition.Value) <= 0, nil
	case ComparisonOperatorIn, ComparisonOperatorNin:
		values, ok := condition.Value.([]any)
		if !ok {
			return false, fmt.Errorf("operator %s requires a list value, got %T", condition.Operator, condition.Value)
		}
		found := false
		for _, v := range values {
			if LooseEqual(fieldValue, v) {
				found = true
				break
			}
		}
		if condition.Operator == ComparisonOperatorIn {
			return found, nil
		}
		return !found, nil
	case ComparisonOperatorContains:
		return strings.Contains(foldString(fieldValue), foldString(condition.Value)), nil
	case ComparisonOperatorNotContains:
		return !strings.Contains(foldString(fieldValue), foldString(condition.Value)), nil
	case ComparisonOperatorStartsWith:
		return strings.HasPrefix(foldString(fieldValue), foldString(condition.Value)), nil
	case ComparisonOperatorEndsWith:
		return strings.HasSuffix(foldString(fieldValue), foldString(condition.Value)), nil
	default:
		return false, fmt.Errorf("unsupported standard comparison operator for Go evaluation: %s", condition.Operator)
	}
}

// SortRows orders rows in place by the sort configuration. Rows missing a sort
// field order before rows that have it.
func SortRows(rows []schema.Document, sorts []SortConfiguration) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range sorts {
			a, b := rows[i][s.Field], rows[j][s.Field]
			var c int
			switch {
			case a == nil && b == nil:
				c = 0
			case a == nil:
				c = -1
			case b == nil:
				c = 1
			default:
				c = Compare(a, b)
			}
			if c == 0 {
				continue
			}
			if s.Direction == SortDirectionDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Paginate returns the window of rows selected by the pagination options.
func Paginate(rows []schema.Document, pagination *PaginationOptions) []schema.Document {
	if pagination == nil {
		return rows
	}
	start := 0
	if pagination.Offset != nil && *pagination.Offset > 0 {
		start = *pagination.Offset
	}
	if start >= len(rows) {
		return []schema.Document{}
	}
	end := len(rows)
	if pagination.Limit > 0 && start+pagination.Limit < end {
		end = start + pagination.Limit
	}
	return rows[start:end]
}

// LooseEqual compares a stored value with a filter value that may have come
// from a query string. Numbers compare numerically and booleans accept their
// textual forms; everything else compares by its string form.
func LooseEqual(stored, wanted any) bool {
	if stored == nil || wanted == nil {
		return stored == nil && wanted == nil
	}
	if isNumber(stored) || isNumber(wanted) {
		a, okA := ToFloat64(stored)
		b, okB := ToFloat64(wanted)
		if okA && okB {
			return a == b
		}
	}
	if sb, ok := stored.(bool); ok {
		if wb, ok := ToBool(wanted); ok {
			return sb == wb
		}
		return false
	}
	return toText(stored) == toText(wanted)
}

// Compare orders two values: numerically when either side is a number and both
// convert, otherwise by string form. Dates stored as ISO text order correctly.
func Compare(a, b any) int {
	if isNumber(a) || isNumber(b) {
		x, okA := ToFloat64(a)
		y, okB := ToFloat64(b)
		if okA && okB {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(toText(a), toText(b))
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

func toText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// foldString lowercases ASCII letters only, the way SQLite's LIKE does, so
// the memory and sqlite backends agree on non-ASCII text.
func foldString(v any) string {
	s := toText(v)
	b := []byte(s)
	changed := false
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
