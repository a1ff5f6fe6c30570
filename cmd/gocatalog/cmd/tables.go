package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/schema"
)

var tablesDeps bool

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List catalog objects in dependency order",
	Long: `Tables lists every catalog table and view in creation order, grouped
into passes: an object only depends on objects of earlier passes.

With --deps the objects each object depends on (->) and the tables
referencing it through a foreign key (<-) are shown as well.

Example:
  gocatalog tables --deps`,
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().BoolVar(&tablesDeps, "deps", false,
		"Show dependencies and referencing tables of each object")

	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	printCatalogObjects(cmd, schema.Default(), tablesDeps)
	return nil
}

func printCatalogObjects(cmd *cobra.Command, cat *schema.Catalog, deps bool) {
	out := cmd.OutOrStdout()

	printHeader(out, "Catalog Objects (schema v%d)", cat.Version)

	width := 0
	for _, name := range cat.Names() {
		if n := len(name); n > width {
			width = n
		}
	}

	for i, pass := range cat.Passes() {
		fmt.Fprintln(out)
		printSection(out, fmt.Sprintf("Pass %d", i+1))
		for _, name := range pass {
			obj, _ := cat.Lookup(name)
			line := fmt.Sprintf("  %s %-5s", pad(name, width), obj.Kind())
			if t, ok := obj.(*schema.Table); ok {
				if pk := t.PrimaryKeyNames(); len(pk) > 0 {
					line += " PK: " + strings.Join(pk, ", ")
				}
			}
			fmt.Fprintln(out, line)

			if !deps {
				continue
			}
			for _, dep := range cat.Graph().Dependencies(name) {
				fmt.Fprintf(out, "      -> %s\n", dep)
			}
			for _, dep := range cat.Dependents(name) {
				fmt.Fprintf(out, "      <- %s\n", dep)
			}
		}
	}

	fmt.Fprintf(out, "\nTotal: %d object(s)\n", cat.Len())
}
