// Package sqlite provides the mapping logic from the abstract schema definition to
// concrete SQLite DDL (Data Definition Language). It is responsible for generating
// the SQL statements required to create tables and indexes for dashboard resources.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/asaidimu/go-filterable/core/schema"
)

// InteractorOptions controls how the interactor creates tables.
type InteractorOptions struct {
	IfNotExists      bool   // Emit CREATE TABLE IF NOT EXISTS.
	CreateIndexes    bool   // Create the non-primary indexes declared in the schema.
	CollectionPrefix string // Prepended to every table name.
}

// DefaultInteractorOptions returns a set of sensible default options for the
// SQLite interactor.
func DefaultInteractorOptions() *InteractorOptions {
	return &InteractorOptions{
		IfNotExists:   true,
		CreateIndexes: true,
	}
}

// getTableName constructs the full, quoted table name by applying the configured
// table prefix to the base name.
func (i *SQLiteInteractor) getTableName(baseName string) string {
	return quoteIdentifier(i.options.CollectionPrefix + baseName)
}

// CreateCollection generates and executes the DDL statements to create a table
// and its associated indexes.
func (i *SQLiteInteractor) CreateCollection(ctx context.Context, sc *schema.SchemaDefinition) error {
	sqlStatements, err := i.CreateTableSQL(sc)
	if err != nil {
		return fmt.Errorf("failed to generate SQL for table %s: %w", sc.Name, err)
	}

	if i.options.CreateIndexes {
		fullTableName := i.getTableName(sc.Name)
		for _, index := range sc.Indexes {
			sqlIndex, err := i.CreateIndexSQL(fullTableName, index)
			if err != nil {
				return fmt.Errorf("failed to generate SQL for index %s: %w", index.Name, err)
			}
			if sqlIndex != "" {
				sqlStatements = append(sqlStatements, sqlIndex)
			}
		}
	}

	for _, stmt := range sqlStatements {
		i.logger.Debug("Executing DDL", zapSQL(stmt))
		if _, err := i.runner().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute SQL statement '%s': %w", stmt, err)
		}
	}
	return nil
}

// CreateTableSQL generates the DDL SQL statements required to create a table from a
// schema definition. Columns are emitted in field-name order.
func (i *SQLiteInteractor) CreateTableSQL(sc *schema.SchemaDefinition) ([]string, error) {
	if sc == nil || sc.Name == "" {
		return nil, fmt.Errorf("schema must define a table name")
	}
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if i.options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(i.getTableName(sc.Name) + " (\n")

	var primaryKeys []string
	for _, index := range sc.Indexes {
		if index.Type == schema.IndexTypePrimary && len(index.Fields) > 0 {
			primaryKeys = index.Fields
			break
		}
	}

	columns := make([]string, 0, len(sc.Fields))
	for _, name := range sc.FieldNames() {
		columnDef, err := buildColumnDefinition(name, sc.Fields[name])
		if err != nil {
			return nil, fmt.Errorf("error on field '%s': %w", name, err)
		}
		columns = append(columns, "    "+columnDef)
	}
	sb.WriteString(strings.Join(columns, ",\n"))

	if len(primaryKeys) > 0 {
		quotedPKs := make([]string, len(primaryKeys))
		for idx, pk := range primaryKeys {
			quotedPKs[idx] = quoteIdentifier(pk)
		}
		sb.WriteString(",\n    PRIMARY KEY (" + strings.Join(quotedPKs, ", ") + ")")
	}

	sb.WriteString("\n);")
	return []string{sb.String()}, nil
}

func buildColumnDefinition(fieldName string, field *schema.FieldDefinition) (string, error) {
	parts := []string{quoteIdentifier(fieldName), GetColumnType(field.Type)}

	if field.Required != nil && *field.Required {
		parts = append(parts, "NOT NULL")
	}
	if field.Default != nil {
		defVal, err := formatDefaultValue(field.Default, field.Type)
		if err != nil {
			return "", err
		}
		parts = append(parts, "DEFAULT "+defVal)
	}
	if field.Unique != nil && *field.Unique {
		parts = append(parts, "UNIQUE")
	}
	if field.Type == schema.FieldTypeEnum && len(field.Values) > 0 {
		checkValues := make([]string, 0, len(field.Values))
		for _, v := range field.Values {
			valStr, _ := formatDefaultValue(v, schema.FieldTypeString)
			checkValues = append(checkValues, valStr)
		}
		parts = append(parts, fmt.Sprintf("CHECK(%s IN (%s))", quoteIdentifier(fieldName), strings.Join(checkValues, ", ")))
	}
	return strings.Join(parts, " "), nil
}

// GetColumnType maps a schema.FieldType to its corresponding SQLite column type.
// Dates are stored as ISO-8601 text so that range comparisons order correctly.
func GetColumnType(fieldType schema.FieldType) string {
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeEnum, schema.FieldTypeDate, schema.FieldTypeDateTime:
		return "TEXT"
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		return "REAL"
	case schema.FieldTypeInteger, schema.FieldTypeBoolean:
		return "INTEGER"
	default:
		return "BLOB"
	}
}

func formatDefaultValue(value any, fieldType schema.FieldType) (string, error) {
	if value == nil {
		return "NULL", nil
	}
	switch fieldType {
	case schema.FieldTypeString, schema.FieldTypeEnum, schema.FieldTypeDate, schema.FieldTypeDateTime:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(fmt.Sprintf("%v", value), "'", "''")), nil
	case schema.FieldTypeNumber, schema.FieldTypeInteger, schema.FieldTypeDecimal:
		return fmt.Sprintf("%v", value), nil
	case schema.FieldTypeBoolean:
		if b, ok := value.(bool); ok && b {
			return "1", nil
		}
		return "0", nil
	default:
		return "", fmt.Errorf("unsupported type for default value: %s", fieldType)
	}
}

// CreateIndexSQL generates the DDL SQL string for creating an index. Primary
// indexes are part of the table definition and yield an empty string.
func (i *SQLiteInteractor) CreateIndexSQL(collection string, index schema.IndexDefinition) (string, error) {
	if index.Type == schema.IndexTypePrimary {
		return "", nil
	}
	if len(index.Fields) == 0 {
		return "", fmt.Errorf("index '%s' has no fields", index.Name)
	}

	var sb strings.Builder
	sb.WriteString("CREATE ")
	if (index.Unique != nil && *index.Unique) || index.Type == schema.IndexTypeUnique {
		sb.WriteString("UNIQUE ")
	}
	sb.WriteString("INDEX IF NOT EXISTS ")
	indexName := index.Name
	if indexName == "" {
		unquotedTableName := strings.Trim(collection, `"`)
		indexName = fmt.Sprintf("idx_%s_%s", unquotedTableName, strings.Join(index.Fields, "_"))
	}
	sb.WriteString(quoteIdentifier(indexName))
	sb.WriteString(fmt.Sprintf(" ON %s (", collection))

	fieldParts := make([]string, 0, len(index.Fields))
	for _, field := range index.Fields {
		part := quoteIdentifier(field)
		if index.Order != nil && strings.ToUpper(*index.Order) == "DESC" {
			part += " DESC"
		}
		fieldParts = append(fieldParts, part)
	}
	sb.WriteString(strings.Join(fieldParts, ", ") + ");")
	return sb.String(), nil
}

// DropCollection drops a table from the database.
func (i *SQLiteInteractor) DropCollection(ctx context.Context, collection string) error {
	fullTableName := i.getTableName(collection)
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s;", fullTableName)
	if _, err := i.runner().ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", fullTableName, err)
	}
	return nil
}

// CollectionExists checks if a table exists in the database.
func (i *SQLiteInteractor) CollectionExists(ctx context.Context, collection string) (bool, error) {
	fullUnquotedName := i.options.CollectionPrefix + collection
	stmt := "SELECT name FROM sqlite_master WHERE type='table' AND name = ?;"

	var name string
	err := i.runner().QueryRowContext(ctx, stmt, fullUnquotedName).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
