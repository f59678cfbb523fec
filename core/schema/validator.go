package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage layout of FieldTypeDate values.
const DateLayout = "2006-01-02"

// ErrInvalidTemporal is returned when a date or datetime value cannot be parsed.
var ErrInvalidTemporal = errors.New("invalid date value")

// ParseTemporal parses a date or datetime value given as text. Both column
// types accept a bare date or an RFC 3339 timestamp.
func ParseTemporal(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTemporal, value)
}

// Validator checks documents against a schema before they are written. It
// checks required fields, value types and enum membership, and reports every
// problem it finds rather than stopping at the first.
type Validator struct {
	schema *SchemaDefinition
	issues []Issue
}

// NewValidator creates a new Validator for a given schema. The returned
// validator can be reused for multiple validation operations.
func NewValidator(schema *SchemaDefinition) *Validator {
	return &Validator{
		schema: schema,
		issues: make([]Issue, 0),
	}
}

// Validate checks if a given data map conforms to the validator's schema.
// The `loose` parameter can be used to ignore missing required fields.
func (v *Validator) Validate(data map[string]any, loose bool) (bool, []Issue) {
	v.issues = make([]Issue, 0)

	v.validateData(data)

	finalIssues := v.issues
	if loose {
		filteredIssues := make([]Issue, 0, len(v.issues))
		for _, issue := range v.issues {
			if issue.Code != "REQUIRED_FIELD_MISSING" {
				filteredIssues = append(filteredIssues, issue)
			}
		}
		finalIssues = filteredIssues
	}

	return len(finalIssues) == 0, finalIssues
}

// Coerce converts a value read from configuration or a form into the Go type
// stored for the field type. Values that cannot be converted are returned
// unchanged with ok=false.
func Coerce(value any, expectedType FieldType) (any, bool) {
	if value == nil {
		return nil, true
	}

	str, ok := value.(string)
	if !ok {
		return value, false
	}

	switch expectedType {
	case FieldTypeBoolean:
		switch strings.ToLower(str) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	case FieldTypeInteger:
		if intVal, err := strconv.ParseInt(str, 10, 64); err == nil {
			return intVal, true
		}
	case FieldTypeNumber, FieldTypeDecimal:
		if floatVal, err := strconv.ParseFloat(str, 64); err == nil {
			return floatVal, true
		}
	}
	return value, false
}

func (v *Validator) validateData(data map[string]any) {
	for _, fieldName := range v.schema.FieldNames() {
		fieldDef := v.schema.Fields[fieldName]
		value, exists := data[fieldName]

		if fieldDef.Required != nil && *fieldDef.Required && !exists {
			v.addIssue("REQUIRED_FIELD_MISSING", fmt.Sprintf("Required field '%s' is missing", fieldName), fieldName)
			continue
		}
		if !exists {
			continue
		}
		v.validateFieldValue(value, fieldDef, fieldName)
	}

	keys := make([]string, 0, len(data))
	for dataKey := range data {
		keys = append(keys, dataKey)
	}
	sort.Strings(keys)
	for _, dataKey := range keys {
		if !v.schema.HasField(dataKey) {
			v.addIssue("UNEXPECTED_FIELD", fmt.Sprintf("Unexpected field '%s' not defined in schema", dataKey), dataKey)
		}
	}
}

func (v *Validator) validateFieldValue(value any, fieldDef *FieldDefinition, path string) {
	if value == nil {
		if fieldDef.Required != nil && *fieldDef.Required {
			v.addIssue("NULL_VALUE", "Field cannot be null", path)
		}
		return
	}

	if coerced, ok := Coerce(value, fieldDef.Type); ok {
		value = coerced
	}

	if !v.validateFieldType(value, fieldDef.Type, path) {
		return
	}

	if fieldDef.Type == FieldTypeEnum && len(fieldDef.Values) > 0 {
		v.validateEnumValue(value, fieldDef.Values, path)
	}
}

func (v *Validator) validateFieldType(value any, expectedType FieldType, path string) bool {
	switch expectedType {
	case FieldTypeString, FieldTypeEnum:
		if _, ok := value.(string); !ok {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected string, got %T", value), path)
			return false
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected boolean, got %T", value), path)
			return false
		}
	case FieldTypeInteger:
		switch rv := reflect.ValueOf(value); rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		case reflect.Float32, reflect.Float64:
			if rv.Float() != float64(int64(rv.Float())) {
				v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected integer, got %v", value), path)
				return false
			}
		default:
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected integer, got %T", value), path)
			return false
		}
	case FieldTypeNumber, FieldTypeDecimal:
		switch reflect.ValueOf(value).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
		default:
			v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected number, got %T", value), path)
			return false
		}
	case FieldTypeDate:
		if !v.validateTime(value, DateLayout, path) {
			return false
		}
	case FieldTypeDateTime:
		if !v.validateTime(value, time.RFC3339, path) {
			return false
		}
	default:
		v.addIssue("UNKNOWN_FIELD_TYPE", fmt.Sprintf("Unknown field type '%s'", expectedType), path)
		return false
	}
	return true
}

func (v *Validator) validateTime(value any, layout string, path string) bool {
	switch val := value.(type) {
	case time.Time:
		return true
	case string:
		if _, err := time.Parse(layout, val); err != nil {
			v.addIssue("INVALID_DATE", fmt.Sprintf("Expected layout %s, got '%s'", layout, val), path)
			return false
		}
		return true
	default:
		v.addIssue("TYPE_MISMATCH", fmt.Sprintf("Expected date, got %T", value), path)
		return false
	}
}

func (v *Validator) validateEnumValue(value any, allowed []any, path string) {
	for _, candidate := range allowed {
		if fmt.Sprintf("%v", candidate) == fmt.Sprintf("%v", value) {
			return
		}
	}
	v.addIssue("INVALID_ENUM_VALUE", fmt.Sprintf("Value '%v' is not one of %v", value, allowed), path)
}

func (v *Validator) addIssue(code, message, path string) {
	v.issues = append(v.issues, Issue{
		Code:     code,
		Message:  message,
		Path:     path,
		Severity: "error",
	})
}
