package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aqasim81/graph-migration-engine/internal/config"
	"github.com/aqasim81/graph-migration-engine/internal/logging"
)

const version = "0.1.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// logger is built from AppConfig during PersistentPreRunE.
var (
	logger    zerolog.Logger = zerolog.Nop() //nolint:gochecknoglobals // shared with subcommands like AppConfig
	logCloser io.Closer      = nopCloser{}   //nolint:gochecknoglobals // released in PersistentPostRunE
)

// rootCmd is the base command for the migrate CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "migrate",
	Version: version,
	Short:   "Ordered, idempotent migrations for a SPARQL triplestore",
	Long: `migrate applies SPARQL update files and Turtle datasets found in a
migrations directory to a triplestore, in filename order, exactly once.
Applied migrations are recorded in a ledger graph inside the store itself.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		return setupLogging(cmd)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return logCloser.Close()
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", "migrate.yml", "path to configuration file")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "env file loaded before reading MIGRATE_* variables")
	rootCmd.PersistentFlags().String("sparql-endpoint", "", "SPARQL endpoint URL")
	rootCmd.PersistentFlags().String("migrations-dir", "", "path to migration files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output (same as --log-level=debug)")
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	if envFile, err := cmd.Flags().GetString("env-file"); err == nil && envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
	}

	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	config.MergeEnv(cfg)
	mergeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	AppConfig = cfg

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("sparql-endpoint") {
		cfg.SPARQLEndpoint, _ = cmd.Flags().GetString("sparql-endpoint")
	}

	if cmd.Flags().Changed("migrations-dir") {
		cfg.MigrationsDir, _ = cmd.Flags().GetString("migrations-dir")
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
}

// setupLogging replaces the package logger with one built from AppConfig.
func setupLogging(cmd *cobra.Command) error {
	l, closer, err := logging.New(logging.Config{
		Level:   AppConfig.LogLevel,
		File:    AppConfig.LogFile,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}

	logger = l
	logCloser = closer

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
