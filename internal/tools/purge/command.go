package purge

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/avezina/identity-service/internal/config"
	"github.com/avezina/identity-service/internal/database"
	"github.com/avezina/identity-service/internal/observability"
	"github.com/avezina/identity-service/internal/repository"
)

type options struct {
	timeout time.Duration
}

// NewCommand removes expired verification tokens and sessions. Both stores
// are swept concurrently since neither depends on the other.
func NewCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete expired verification tokens and sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			return run(ctx, cmd)
		},
	}
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "operation timeout")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg)
	if err != nil {
		observability.RecordToolCommandRun(ctx, "purge", "error")
		return err
	}
	defer closeDB(db)

	sessionRepo := repository.NewSessionRepository(db)
	if cfg.SessionStore == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = client.Close() }()
		sessionRepo = repository.NewRedisSessionRepository(client)
	}
	tokenRepo := repository.NewVerificationTokenRepository(db)

	now := time.Now().UTC()
	var tokensDeleted, sessionsDeleted int64

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := tokenRepo.DeleteExpired(now)
		if err != nil {
			return fmt.Errorf("purge tokens: %w", err)
		}
		tokensDeleted = n
		return nil
	})
	g.Go(func() error {
		n, err := sessionRepo.DeleteExpired(now)
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		sessionsDeleted = n
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordToolCommandRun(ctx, "purge", "error")
		return err
	}

	observability.RecordToolCommandRun(ctx, "purge", "success")
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired tokens, %d expired sessions\n", tokensDeleted, sessionsDeleted)
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
