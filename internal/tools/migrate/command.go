package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/avezina/identity-service/internal/config"
	"github.com/avezina/identity-service/internal/database"
	"github.com/avezina/identity-service/internal/observability"
)

type options struct {
	timeout time.Duration
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tooling",
	}
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.AddCommand(newUpCommand(opts), newStatusCommand(opts))
	return cmd
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			db, err := openDB()
			if err != nil {
				observability.RecordToolCommandRun(ctx, "migrate up", "error")
				return err
			}
			defer closeDB(db)

			if err := database.Migrate(db); err != nil {
				observability.RecordToolCommandRun(ctx, "migrate up", "error")
				return err
			}
			observability.RecordToolCommandRun(ctx, "migrate up", "success")
			fmt.Fprintln(cmd.OutOrStdout(), "schema migration applied")
			return nil
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check migration prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			db, err := openDB()
			if err != nil {
				observability.RecordToolCommandRun(ctx, "migrate status", "error")
				return err
			}
			defer closeDB(db)

			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				observability.RecordToolCommandRun(ctx, "migrate status", "error")
				return fmt.Errorf("db ping: %w", err)
			}
			observability.RecordToolCommandRun(ctx, "migrate status", "success")
			fmt.Fprintln(cmd.OutOrStdout(), "database reachable")
			return nil
		},
	}
}

func openDB() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
