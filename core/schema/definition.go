// Package schema describes the shape of a filterable resource: its fields, their
// storage types and its indexes. Collections use it to answer column-existence
// and column-type questions without touching the database.
package schema

import (
	"fmt"
	"sort"
)

// LogicalOperator for combining conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
)

// FieldType represents the basic field types supported by the schema system.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeNumber   FieldType = "number"   // Numeric data
	FieldTypeInteger  FieldType = "integer"  // Numeric data
	FieldTypeDecimal  FieldType = "decimal"  // Numeric data
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeEnum     FieldType = "enum"     // One out of a set of pre-defined items
	FieldTypeDate     FieldType = "date"     // Calendar date, stored as YYYY-MM-DD text
	FieldTypeDateTime FieldType = "datetime" // Timestamp, stored as RFC 3339 text
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeString:   {},
	FieldTypeNumber:   {},
	FieldTypeInteger:  {},
	FieldTypeDecimal:  {},
	FieldTypeBoolean:  {},
	FieldTypeEnum:     {},
	FieldTypeDate:     {},
	FieldTypeDateTime: {},
}

// IsKnown reports whether t is one of the supported field types.
func (t FieldType) IsKnown() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// IsTextual reports whether values of this type are matched by substring.
func (t FieldType) IsTextual() bool {
	return t == FieldTypeString || t == FieldTypeEnum
}

// IsTemporal reports whether the type holds a date or a timestamp.
func (t FieldType) IsTemporal() bool {
	return t == FieldTypeDate || t == FieldTypeDateTime
}

// IndexType represents index types for optimizing different query patterns.
type IndexType string

const (
	IndexTypeNormal  IndexType = "normal"  // General-purpose index
	IndexTypeUnique  IndexType = "unique"  // Unique index
	IndexTypePrimary IndexType = "primary" // Primary key index (implies unique)
)

// FieldDefinition defines a field within a schema.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Required indicates if the field is mandatory.
	Required *bool `json:"required,omitempty"`
	// Default provides a default value for the field.
	Default any `json:"default,omitempty"`
	// Values specifies the allowed values for an 'enum' type field.
	Values []any `json:"values,omitempty"`
	// Description provides a brief explanation of the field.
	Description *string `json:"description,omitempty"`
	// Unique indicates if the field must have unique values.
	Unique *bool `json:"unique,omitempty"`
}

// IndexDefinition defines an index for optimizing queries or enforcing uniqueness.
type IndexDefinition struct {
	Fields      []string  `json:"fields"`
	Type        IndexType `json:"type"`
	Unique      *bool     `json:"unique,omitempty"`
	Description *string   `json:"description,omitempty"`
	Order       *string   `json:"order,omitempty"` // "asc" | "desc"
	Name        string    `json:"name"`
}

// SchemaDefinition defines the storage shape of one resource.
type SchemaDefinition struct {
	Name        string                      `json:"name"`
	Version     string                      `json:"version"`
	Description *string                     `json:"description,omitempty"`
	Fields      map[string]*FieldDefinition `json:"fields"` // Map of field names to FieldDefinition
	Indexes     []IndexDefinition           `json:"indexes,omitempty"`
}

// FindField returns the definition of the named field, or nil.
func (s *SchemaDefinition) FindField(name string) *FieldDefinition {
	if s == nil {
		return nil
	}
	if f, ok := s.Fields[name]; ok {
		return f
	}
	for _, field := range s.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// HasField reports whether the schema declares the named field.
func (s *SchemaDefinition) HasField(name string) bool {
	return s.FindField(name) != nil
}

// TypeOf returns the declared type of the named field.
func (s *SchemaDefinition) TypeOf(name string) (FieldType, bool) {
	f := s.FindField(name)
	if f == nil {
		return "", false
	}
	return f.Type, true
}

// FieldNames returns the field names in a stable order.
func (s *SchemaDefinition) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize fills in field names omitted in configuration from their map keys.
func (s *SchemaDefinition) Normalize() {
	for key, field := range s.Fields {
		if field != nil && field.Name == "" {
			field.Name = key
		}
	}
}

// Check reports structural problems with the definition itself: a missing
// name, unknown field types, or indexes over undeclared fields.
func (s *SchemaDefinition) Check() []Issue {
	var issues []Issue
	if s.Name == "" {
		issues = append(issues, Issue{Code: "MISSING_NAME", Message: "schema must define a table name", Severity: "error"})
	}
	if len(s.Fields) == 0 {
		issues = append(issues, Issue{Code: "NO_FIELDS", Message: "schema must define at least one field", Severity: "error"})
	}
	for _, key := range s.FieldNames() {
		field := s.Fields[key]
		if field.Name != "" && field.Name != key {
			issues = append(issues, Issue{
				Code:     "FIELD_NAME_MISMATCH",
				Message:  fmt.Sprintf("field key '%s' does not match field name '%s'", key, field.Name),
				Path:     key,
				Severity: "error",
			})
		}
		if !field.Type.IsKnown() {
			issues = append(issues, Issue{
				Code:     "UNKNOWN_FIELD_TYPE",
				Message:  fmt.Sprintf("field '%s' has unknown type '%s'", key, field.Type),
				Path:     key,
				Severity: "error",
			})
		}
	}
	for _, index := range s.Indexes {
		for _, f := range index.Fields {
			if !s.HasField(f) {
				issues = append(issues, Issue{
					Code:     "INDEX_FIELD_MISSING",
					Message:  fmt.Sprintf("index '%s' references undeclared field '%s'", index.Name, f),
					Path:     index.Name,
					Severity: "error",
				})
			}
		}
	}
	return issues
}

// Issue represents a validation or operational issue.
type Issue struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Path        string `json:"path,omitempty"`
	Severity    string `json:"severity,omitempty"` // e.g., "error", "warning"
	Description string `json:"description,omitempty"`
}

// ValidationResult is the outcome of validating a document.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues"`
}

// Document is a single row keyed by column name.
type Document map[string]any
