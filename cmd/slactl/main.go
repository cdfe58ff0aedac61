package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-dashboard/internal/config"
	"github.com/spec-kit/sla-dashboard/internal/events"
	"github.com/spec-kit/sla-dashboard/internal/observability"
	"github.com/spec-kit/sla-dashboard/internal/persistence"
	"github.com/spec-kit/sla-dashboard/internal/repository"
	"github.com/spec-kit/sla-dashboard/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slactl",
		Short: "Operational tooling for the SLA dashboard",
	}

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// importCmd imports a helpdesk export file. Safe to re-run: the pipeline
// upserts by external id.
func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a helpdesk JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env *cliEnv) error {
				summary, err := env.imports.ImportFile(ctx, args[0])
				if err != nil {
					return err
				}
				env.reports.InvalidateCache(ctx)
				fmt.Printf("imported=%d updated=%d total_processed=%d\n",
					summary.Imported, summary.Updated, summary.TotalProcessed)
				return nil
			})
		},
	}
}

// seedCmd inserts the SLA policy matrix. Idempotent.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the SLA definition matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env *cliEnv) error {
				if err := env.imports.SeedSLADefinitions(ctx); err != nil {
					return err
				}
				fmt.Println("sla definitions seeded")
				return nil
			})
		},
	}
}

// migrateCmd applies the SQL migrations.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env *cliEnv) error {
				return persistence.RunMigrations(ctx, env.pg.PoolHandle(), env.logger)
			})
		},
	}
}

type cliEnv struct {
	logger  *zap.Logger
	pg      *persistence.Postgres
	imports *service.ImportService
	reports *service.ReportService
}

// withEnv loads config, connects the backing stores, runs fn and tears the
// connections down again.
func withEnv(ctx context.Context, fn func(context.Context, *cliEnv) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store := repository.NewStore(pg.PoolHandle())
	imports := service.NewImportService(service.ImportDependencies{
		Store:      store,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
	})
	reports := service.NewReportService(store, redis, logger)

	return fn(ctx, &cliEnv{logger: logger, pg: pg, imports: imports, reports: reports})
}
