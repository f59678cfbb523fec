// Package sqlite executes filtered resource queries against a SQLite database.
// It generates SQL from the query DSL, runs it through database/sql and maps
// rows back to schema documents.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/core/schema"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// dbRunner is an interface that abstracts the common methods of *sql.DB and *sql.Tx,
// allowing for the same code to be used for both transactional and non-transactional
// database operations.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteInteractor manages the database connection, generates SQL queries,
// and executes them against the database. It can operate in both transactional and
// non-transactional modes.
type SQLiteInteractor struct {
	db                    *sql.DB
	tx                    *sql.Tx
	queryGeneratorFactory query.QueryGeneratorFactory
	logger                *zap.Logger
	options               *InteractorOptions
}

// Open opens a SQLite database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", dsn, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %q: %w", dsn, err)
	}
	return db, nil
}

// NewSQLiteInteractor creates a new instance of the SQLiteInteractor. It can be
// configured to operate in transactional mode by providing a non-nil *sql.Tx.
func NewSQLiteInteractor(db *sql.DB, logger *zap.Logger, options *InteractorOptions, tx *sql.Tx) *SQLiteInteractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultInteractorOptions()
	}
	return &SQLiteInteractor{
		db:                    db,
		tx:                    tx,
		options:               options,
		queryGeneratorFactory: NewSqliteQueryGeneratorFactory(),
		logger:                logger,
	}
}

func (i *SQLiteInteractor) runner() dbRunner {
	if i.tx != nil {
		return i.tx
	}
	return i.db
}

func zapSQL(stmt string) zap.Field {
	return zap.String("sql", stmt)
}

// prefixed returns a copy of the schema whose name carries the table prefix.
func (i *SQLiteInteractor) prefixed(sc *schema.SchemaDefinition) *schema.SchemaDefinition {
	if i.options.CollectionPrefix == "" {
		return sc
	}
	cp := *sc
	cp.Name = i.options.CollectionPrefix + sc.Name
	return &cp
}

// readRows reads all rows from a *sql.Rows object and converts them into a slice
// of schema.Document maps, restoring the Go type of each column from the schema.
func readRows(logger *zap.Logger, sc *schema.SchemaDefinition, rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := []schema.Document{}
	for rows.Next() {
		row := make(schema.Document, len(columns))
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}

		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range columns {
			val := values[i]
			if val == nil {
				row[col] = nil
				continue
			}

			fieldDef := sc.FindField(col)
			if fieldDef == nil {
				logger.Warn("Column not found in schema, using raw value", zap.String("column", col))
				row[col] = val
				continue
			}
			row[col] = fromStorage(fieldDef.Type, val)
		}
		results = append(results, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

func fromStorage(fieldType schema.FieldType, val any) any {
	if b, ok := val.([]byte); ok {
		val = string(b)
	}
	switch fieldType {
	case schema.FieldTypeBoolean:
		if intVal, ok := val.(int64); ok {
			return intVal != 0
		}
	case schema.FieldTypeInteger:
		if floatVal, ok := val.(float64); ok {
			return int64(floatVal)
		}
	case schema.FieldTypeNumber, schema.FieldTypeDecimal:
		if intVal, ok := val.(int64); ok {
			return float64(intVal)
		}
	}
	return val
}

// SelectDocuments executes a SELECT query against the database.
func (i *SQLiteInteractor) SelectDocuments(ctx context.Context, sc *schema.SchemaDefinition, dsl *query.QueryDSL) ([]schema.Document, error) {
	queryGenerator, err := i.queryGeneratorFactory.CreateGenerator(i.prefixed(sc))
	if err != nil {
		return nil, fmt.Errorf("could not get a query generator instance: %w", err)
	}

	sqlQuery, queryParams, err := queryGenerator.GenerateSelectSQL(dsl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	i.logger.Debug("Executing SQL SELECT", zapSQL(sqlQuery), zap.Any("params", queryParams))

	rows, err := i.runner().QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		i.logger.Error("Failed to execute SELECT query", zap.Error(err), zapSQL(sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()
	return readRows(i.logger, sc, rows)
}

// CountDocuments returns the number of rows matched by the DSL's filters.
func (i *SQLiteInteractor) CountDocuments(ctx context.Context, sc *schema.SchemaDefinition, dsl *query.QueryDSL) (int, error) {
	queryGenerator, err := i.queryGeneratorFactory.CreateGenerator(i.prefixed(sc))
	if err != nil {
		return 0, fmt.Errorf("could not get a query generator instance: %w", err)
	}

	sqlQuery, queryParams, err := queryGenerator.GenerateCountSQL(dsl)
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	i.logger.Debug("Executing SQL COUNT", zapSQL(sqlQuery), zap.Any("params", queryParams))

	var count int
	if err := i.runner().QueryRowContext(ctx, sqlQuery, queryParams...).Scan(&count); err != nil {
		i.logger.Error("Failed to execute COUNT query", zap.Error(err), zapSQL(sqlQuery))
		return 0, fmt.Errorf("failed to execute COUNT query: %w", err)
	}
	return count, nil
}

// InsertDocuments executes an INSERT query against the database.
func (i *SQLiteInteractor) InsertDocuments(ctx context.Context, sc *schema.SchemaDefinition, records []map[string]any) ([]schema.Document, error) {
	if len(records) == 0 {
		return []schema.Document{}, nil
	}
	queryGenerator, err := i.queryGeneratorFactory.CreateGenerator(i.prefixed(sc))
	if err != nil {
		return nil, fmt.Errorf("could not get a query generator instance: %w", err)
	}

	sqlQuery, queryParams, err := queryGenerator.GenerateInsertSQL(records)
	if err != nil {
		return nil, fmt.Errorf("failed to generate INSERT SQL: %w", err)
	}

	i.logger.Debug("Executing SQL INSERT with RETURNING clause", zapSQL(sqlQuery), zap.Any("params", queryParams))

	rows, err := i.runner().QueryContext(ctx, sqlQuery, queryParams...)
	if err != nil {
		i.logger.Error("Failed to execute INSERT ... RETURNING query", zap.Error(err), zapSQL(sqlQuery))
		return nil, fmt.Errorf("failed to execute INSERT ... RETURNING query: %w", err)
	}
	defer rows.Close()
	return readRows(i.logger, sc, rows)
}

// StartTransaction begins a new database transaction and returns a new SQLiteInteractor
// that is scoped to that transaction.
func (i *SQLiteInteractor) StartTransaction(ctx context.Context) (*SQLiteInteractor, error) {
	if i.tx != nil {
		return nil, fmt.Errorf("cannot start a new transaction from an existing transactional interactor")
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	i.logger.Debug("Transaction initiated, returning new transactional interactor")
	return NewSQLiteInteractor(i.db, i.logger, i.options, tx), nil
}

// Commit commits the current transaction.
func (i *SQLiteInteractor) Commit() error {
	if i.tx == nil {
		return fmt.Errorf("commit not applicable: not in a transactional context")
	}
	i.logger.Debug("Committing transaction")
	return i.tx.Commit()
}

// Rollback rolls back the current transaction.
func (i *SQLiteInteractor) Rollback() error {
	if i.tx == nil {
		return fmt.Errorf("rollback not applicable: not in a transactional context")
	}
	i.logger.Debug("Rolling back transaction")
	return i.tx.Rollback()
}
