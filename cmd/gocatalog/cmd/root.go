package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/config"
	"github.com/dbsmedya/gocatalog/internal/database"
	"github.com/dbsmedya/gocatalog/internal/logger"
	"github.com/dbsmedya/gocatalog/internal/store"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

const defaultConfigFile = "gocatalog.yaml"

// CLI flags that override config file values
var (
	cfgFile     string
	logLevel    string
	logFormat   string
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:   "gocatalog",
	Short: "Embedded database metadata catalog",
	Long: `Gocatalog keeps a relational description of database structure
(schemas, tables, views, columns and constraints) in an embedded SQLite
catalog, refreshes it from live MySQL or PostgreSQL databases and answers
ad hoc SQL queries against it.

The catalog objects are created on first use and their rows are reconciled
by primary key: rows are added, modified or removed, and removing a row
also removes the rows referencing it.`,
	Version:      Version,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile,
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Catalog override
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "",
		"Override catalog file path (:memory: for a throwaway catalog)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel    string
	LogFormat   string
	CatalogPath string
}

// GetCLIOverrides returns the CLI override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		CatalogPath: catalogPath,
	}
}

// loadConfig reads the config file and applies the CLI overrides. A missing
// default config file falls back to the built-in defaults; a missing file
// named on the command line is an error.
func loadConfig() (*config.Config, error) {
	configFile := GetConfigFile()

	var cfg *config.Config
	_, statErr := os.Stat(configFile)
	switch {
	case configFile == defaultConfigFile && errors.Is(statErr, fs.ErrNotExist):
		cfg = config.DefaultConfig()
	default:
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.CatalogPath)
	return cfg, nil
}

// setup loads the configuration and builds the logger every command uses.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// openStore opens the configured catalog and runs the bootstrap gate.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Store, error) {
	db, err := database.OpenCatalog(ctx, &cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	st, err := store.Open(ctx, db, store.Options{
		Logger:           log,
		ExtractCacheSize: cfg.Catalog.ExtractCacheSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Catalog.Path, err)
	}
	return st, nil
}
