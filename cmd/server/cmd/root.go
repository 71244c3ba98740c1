package cmd

import (
	"fmt"
	"os"

	"github.com/gatherly/server/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "Gatherly server - event registration backend",
		Long: `Gatherly server is the REST backend for event registration:
user accounts, event browsing, event registration, and feedback.

The server supports:
- Account registration and bearer-token login/logout
- Admin-created events with a 30-day upcoming view
- Per-user event registration with duplicate protection
- Rating and comment feedback per event`,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional, uses env vars by default)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(healthcheckCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}
