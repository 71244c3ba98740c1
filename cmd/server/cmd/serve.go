package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gatherly/server/internal/api"
	"github.com/gatherly/server/internal/auth"
	"github.com/gatherly/server/internal/config"
	"github.com/gatherly/server/internal/domain/users"
	"github.com/gatherly/server/internal/metrics"
	"github.com/gatherly/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gatherly HTTP server",
	Long: `Start the Gatherly HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Bootstrap an admin user if ADMIN_* env vars are set
- Start the HTTP server with the JSON API endpoints
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting gatherly server")

	metrics.Init(Version, GitCommit, BuildDate)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(poolCtx, cfg.Database.URL)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(bootstrapCtx, pool, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	handler, err := api.NewRouter(cfg, logger, pool)
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

// bootstrapAdminUser creates the initial admin account from ADMIN_* env
// vars when no matching user exists yet.
func bootstrapAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Name == "" || bootstrap.Password == "" || bootstrap.Email == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	email := strings.ToLower(strings.TrimSpace(bootstrap.Email))
	created := false
	err = repo.WithTx(ctx, func(ctx context.Context, txRepo *postgres.Repository) error {
		_, err := txRepo.Users().GetByEmail(ctx, email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, users.ErrNotFound) {
			return fmt.Errorf("check admin user: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(bootstrap.Password), users.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}

		if _, err := txRepo.Users().Create(ctx, users.CreateParams{
			Name:         bootstrap.Name,
			Email:        email,
			PasswordHash: string(hash),
			Role:         string(auth.RoleAdmin),
		}); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	// Redact email in production to avoid PII leaks
	if cfg.Environment == "production" {
		logger.Info().Str("name", bootstrap.Name).Msg("bootstrapped admin user")
	} else {
		logger.Info().Str("email", email).Str("name", bootstrap.Name).Msg("bootstrapped admin user")
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
