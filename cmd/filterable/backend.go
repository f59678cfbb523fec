package main

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/asaidimu/go-filterable/admin"
	"github.com/asaidimu/go-filterable/config"
	"github.com/asaidimu/go-filterable/core/query"
	"github.com/asaidimu/go-filterable/sqlite"
)

// openInteractor opens the configured database.
func openInteractor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqlite.SQLiteInteractor, *sql.DB, error) {
	db, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	options := sqlite.DefaultInteractorOptions()
	options.CollectionPrefix = cfg.TablePrefix
	return sqlite.NewSQLiteInteractor(db, logger.Named("sqlite"), options, nil), db, nil
}

// openBackend returns the SQLite backend when a database is configured and an
// in-memory backend holding the seed rows otherwise. The returned function
// releases the backend.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (admin.Backend, func() error, error) {
	if cfg.Database != "" {
		interactor, db, err := openInteractor(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Serving from database", zap.String("database", cfg.Database))
		return admin.NewSQLiteBackend(interactor), db.Close, nil
	}

	backend := admin.NewMemoryBackend(query.NewDataProcessor(logger.Named("memory")))
	for i := range cfg.Dashboards {
		dc := &cfg.Dashboards[i]
		sc, err := dc.Schema()
		if err != nil {
			return nil, nil, err
		}
		docs, err := dc.Documents(sc)
		if err != nil {
			return nil, nil, err
		}
		backend.Load(dc.Resource, docs)
		logger.Debug("Loaded seed rows", zap.String("resource", dc.Resource), zap.Int("rows", len(docs)))
	}
	logger.Info("Serving seed rows from memory", zap.Int("dashboards", len(cfg.Dashboards)))
	return backend, func() error { return nil }, nil
}
