package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/config"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/gatherly/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired sessions",
	Long: `Delete sessions past their expiry time.

Expired sessions are already rejected at validation time; this command
reclaims the storage. Intended to be run from cron, not as a resident
worker.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return err
		}

		tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Server.BaseURL)
		usersService := users.NewService(repo.Users(), tokens, logger)

		deleted, err := usersService.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}

		logger.Info().Int64("deleted", deleted).Msg("cleanup finished")
		return nil
	},
}
