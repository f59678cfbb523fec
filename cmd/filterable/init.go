package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asaidimu/go-filterable/config"
	"github.com/asaidimu/go-filterable/sqlite"
)

// errNoDatabase is returned by init when no database is configured.
var errNoDatabase = errors.New("database is required (set it in the config file, FILTERABLE_DATABASE or --database)")

func newInitCommand() *cobra.Command {
	var skipSeeds bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create dashboard tables and insert seed rows",
		Long: `Create a table for every configured dashboard and insert its seed rows.

Tables that already exist are left untouched and are not seeded again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if cfg.Database == "" {
				return errNoDatabase
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			interactor, db, err := openInteractor(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			for i := range cfg.Dashboards {
				created, err := initDashboard(cmd.Context(), interactor, &cfg.Dashboards[i], !skipSeeds)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cfg.Dashboards[i].Resource, created)
			}
			logger.Info("Initialized database", zap.String("database", cfg.Database), zap.Int("dashboards", len(cfg.Dashboards)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipSeeds, "skip-seeds", false, "Create tables without inserting seed rows")
	return cmd
}

// initDashboard creates the table of dc and seeds it inside one transaction.
// It returns a short summary of what was done.
func initDashboard(ctx context.Context, interactor *sqlite.SQLiteInteractor, dc *config.DashboardConfig, seed bool) (string, error) {
	sc, err := dc.Schema()
	if err != nil {
		return "", err
	}
	exists, err := interactor.CollectionExists(ctx, sc.Name)
	if err != nil {
		return "", err
	}
	if exists {
		return "table exists, skipped", nil
	}
	docs, err := dc.Documents(sc)
	if err != nil {
		return "", err
	}

	tx, err := interactor.StartTransaction(ctx)
	if err != nil {
		return "", err
	}
	if err := tx.CreateCollection(ctx, sc); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("dashboard %s: %w", dc.Resource, err)
	}
	inserted := 0
	if seed && len(docs) > 0 {
		records := make([]map[string]any, len(docs))
		for i, d := range docs {
			records[i] = d
		}
		if _, err := tx.InsertDocuments(ctx, sc, records); err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("dashboard %s: %w", dc.Resource, err)
		}
		inserted = len(records)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("dashboard %s: failed to commit: %w", dc.Resource, err)
	}
	return fmt.Sprintf("created, %d rows", inserted), nil
}
