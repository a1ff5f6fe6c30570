package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/schema"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display detailed version information including build details and the catalog schema version.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	cat := schema.Default()
	cmd.Printf("gocatalog version %s\n", Version)
	cmd.Printf("  Commit: %s\n", Commit)
	cmd.Printf("  Catalog schema: v%d (%d objects)\n", cat.Version, cat.Len())
	cmd.Printf("  Go version: %s\n", runtime.Version())
	cmd.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
