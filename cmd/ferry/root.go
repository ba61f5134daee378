package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ferryd/ferry/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgPath   string
	logLevel  string
	logFormat string
	quiet     bool
	globalCfg *config.Config
	logger    *slog.Logger
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ferry",
		Short: "Manifest-driven file transfer from a file server to local disk or S3",
		Long: `ferry reads a CSV manifest of filenames, fetches each named file from an
SFTP or FTP server, writes it to a local directory or an S3 bucket, and
removes the source copy once the destination write is confirmed.

Files already present at the destination are skipped unless overwrite is
enabled. Every run ends with a per-file summary and an exit code that
reflects whether any transfer failed.`,
		Example: `  ferry run manifest.csv --host files.example.com --user batch --s3-bucket acme-inbound
  ferry run manifest.csv --host files.example.com --user batch --local-path ./downloads
  ferry run manifest.csv --config ferry.yaml --no-delete
  ferry ls --host files.example.com --user batch --remote-path /outbound
  ferry history --limit 10`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initialize logging
			setupLogging()

			// Skip config loading for commands that don't need it
			if shouldSkipConfig(cmd.Name()) {
				return nil
			}

			// Pick up an optional .env file before reading the environment
			config.LoadEnv()

			// Load config
			if cfgPath == "" {
				var err error
				cfgPath, err = config.FindConfigFile()
				if err != nil {
					logger.Debug("config file not found, using defaults", "error", err)
				}
			}

			if cfgPath != "" {
				var err error
				globalCfg, err = config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				if !quiet {
					logger.Debug("config loaded", "path", cfgPath)
				}
			} else {
				globalCfg = config.DefaultConfig()
			}

			return nil
		},
	}

	// Add persistent flags
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (auto-discovered if not specified)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text or json)")
	cmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	// Add subcommands
	cmd.AddCommand(
		newRunCmd(),
		newLsCmd(),
		newHistoryCmd(),
	)

	return cmd
}

// setupLogging initializes the slog logger based on flags
func setupLogging() {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if quiet {
		level = slog.LevelError
	}

	var handler slog.Handler
	if strings.ToLower(logFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// shouldSkipConfig checks if a command should skip config loading
func shouldSkipConfig(cmdName string) bool {
	skipConfigCmds := map[string]bool{
		"help":    true,
		"version": true,
	}
	return skipConfigCmds[cmdName]
}
