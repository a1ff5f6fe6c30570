package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/database"
	"github.com/dbsmedya/gocatalog/internal/schema"
)

var validateConnect bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and the catalog description",
	Long: `Validate checks the configuration file and the built-in catalog
description.

Checks performed:
  - Configuration syntax and required fields
  - Catalog object dependencies (no cycles)
  - Source connectivity (with --connect)

Example:
  gocatalog validate --config gocatalog.yaml --connect`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateConnect, "connect", false,
		"Also connect to every configured source")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(out, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(out, "Catalog: %s\n", cfg.Catalog.Path)
	fmt.Fprintf(out, "Sources found: %d\n\n", len(cfg.Sources))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}
	fmt.Fprintf(out, "✅ Configuration valid\n")

	cat := schema.Default()
	if err := cat.Graph().Validate(); err != nil {
		fmt.Fprintf(out, "❌ Catalog description: %v\n", err)
		return fmt.Errorf("catalog description is invalid")
	}
	fmt.Fprintf(out, "✅ Catalog description valid (%d objects, %d dependencies, %d passes)\n",
		cat.Len(), cat.Graph().EdgeCount(), len(cat.Passes()))

	if validateConnect {
		hasErrors := false
		dbManager := database.NewManager(cfg)
		defer dbManager.Close()

		for _, name := range cfg.ListSources() {
			if _, _, err := dbManager.ConnectSource(context.Background(), name); err != nil {
				fmt.Fprintf(out, "❌ Source %s: %v\n", name, err)
				hasErrors = true
				continue
			}
			fmt.Fprintf(out, "✅ Source %s reachable\n", name)
		}
		if hasErrors {
			return fmt.Errorf("validation failed for one or more sources")
		}
	}

	fmt.Fprintln(out, "=== Validation Complete ===")
	return nil
}
