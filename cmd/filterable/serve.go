package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/asaidimu/go-filterable/admin"
	"github.com/asaidimu/go-filterable/core/filter"
)

// errNoSessionSecret is returned by serve when no cookie signing key is set.
var errNoSessionSecret = errors.New("session_secret is required (set it in the config file, FILTERABLE_SESSION_SECRET or --session-secret)")

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the admin server",
		Long: `Start the admin server for every configured dashboard.

Listings are read from the SQLite database when one is configured and from
the dashboards' seed rows otherwise. The server shuts down gracefully on
SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if cfg.SessionSecret == "" {
				return errNoSessionSecret
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			registry, err := cfg.Registry()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, closeBackend, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeBackend(); err != nil {
					logger.Warn("Failed to close backend", zap.Error(err))
				}
			}()

			srv, err := admin.NewServer(registry, backend, admin.NewCookieStore(cfg.SessionSecret), logger)
			if err != nil {
				return err
			}
			unsubscribe := srv.Filterer().Subscribe(func(_ context.Context, e filter.Applied) error {
				if len(e.Dropped) > 0 {
					logger.Debug("Ignored undeclared filter keys",
						zap.String("resource", e.Resource),
						zap.Strings("keys", e.Dropped),
					)
				}
				return nil
			})
			defer unsubscribe()

			return srv.Serve(ctx, cfg.Addr)
		},
	}
}
