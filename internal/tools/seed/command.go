package seed

import (
	"context"
	"errors"
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
	email   string
}

func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Development data helpers",
	}
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.AddCommand(newVerifyEmailCommand(opts))
	return cmd
}

// newVerifyEmailCommand flips a user's verified flag directly, skipping the
// token flow. Useful when no mail driver is available locally.
func newVerifyEmailCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Mark an existing user's email as verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.email == "" {
				return errors.New("--email is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.Open(cfg)
			if err != nil {
				observability.RecordToolCommandRun(ctx, "seed verify-email", "error")
				return err
			}
			defer closeDB(db)

			if err := database.MarkEmailVerified(db.WithContext(ctx), opts.email); err != nil {
				observability.RecordToolCommandRun(ctx, "seed verify-email", "error")
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("no user with email %q", opts.email)
				}
				return err
			}
			observability.RecordToolCommandRun(ctx, "seed verify-email", "success")
			fmt.Fprintf(cmd.OutOrStdout(), "marked %s as verified\n", opts.email)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.email, "email", "", "email address of the user to verify")
	return cmd
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
