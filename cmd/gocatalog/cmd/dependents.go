package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/schema"
)

var dependentsCmd = &cobra.Command{
	Use:   "dependents TABLE",
	Short: "Show the tables referencing a catalog table",
	Long: `Dependents lists the catalog tables holding a foreign key to TABLE.
Removing a row of TABLE removes the referencing rows of these tables.

Example:
  gocatalog dependents _tables`,
	Args: cobra.ExactArgs(1),
	RunE: runDependents,
}

func init() {
	rootCmd.AddCommand(dependentsCmd)
}

func runDependents(cmd *cobra.Command, args []string) error {
	return printDependents(cmd, schema.Default(), args[0])
}

func printDependents(cmd *cobra.Command, cat *schema.Catalog, name string) error {
	obj, ok := cat.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown catalog object %q", name)
	}
	if obj.Kind() == schema.KindView {
		return fmt.Errorf("%s is a view", name)
	}

	out := cmd.OutOrStdout()
	deps := cat.Dependents(name)
	if len(deps) == 0 {
		fmt.Fprintf(out, "No tables reference %s\n", name)
		return nil
	}
	for _, dep := range deps {
		fmt.Fprintln(out, dep)
	}
	return nil
}
