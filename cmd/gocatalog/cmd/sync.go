package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/database"
	"github.com/dbsmedya/gocatalog/internal/introspect"
	"github.com/dbsmedya/gocatalog/internal/lock"
	"github.com/dbsmedya/gocatalog/internal/verifier"
)

var (
	syncTables []string
	syncForce  bool
	syncStatus bool
	syncVerify string
)

var syncCmd = &cobra.Command{
	Use:   "sync SOURCE",
	Short: "Refresh the catalog from a live database",
	Long: `Sync reads the information schema of a configured source database and
reconciles it into the catalog.

The sync process follows these steps:
  1. Acquire the advisory sync lock of the source
  2. Read the catalog tables from the source, parents first
  3. Add, modify or remove catalog rows of the source schema
  4. Print a per-table change summary
  5. Verify the catalog against the source (sync.verify or --verify)

Example:
  gocatalog sync production --config gocatalog.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVarP(&syncTables, "tables", "t", nil,
		"Catalog tables to refresh (default: sync.tables from config, then all)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false,
		"Skip the advisory sync lock (use with caution)")
	syncCmd.Flags().BoolVar(&syncStatus, "status", false,
		"Only report whether a sync of the source is running")
	syncCmd.Flags().StringVar(&syncVerify, "verify", "",
		"Override the post-sync verification method (count, sha256, skip)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	methodName := cfg.Sync.Verify
	if syncVerify != "" {
		methodName = syncVerify
	}
	method, err := verifier.ParseMethod(methodName)
	if err != nil {
		return err
	}

	ctx, stop := database.WithShutdown(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal, rolling back current table", "signal", sig.String())
	})
	defer stop()

	dbManager := database.NewManager(cfg)
	defer dbManager.Close()

	srcDB, srcCfg, err := dbManager.ConnectSource(ctx, source)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if syncStatus {
		running, err := lock.IsSyncRunning(ctx, srcDB, srcCfg.Dialect, source)
		if err != nil {
			return fmt.Errorf("failed to check sync lock: %w", err)
		}
		if running {
			fmt.Fprintf(out, "Sync of %s is running\n", source)
		} else {
			fmt.Fprintf(out, "No sync of %s is running\n", source)
		}
		return nil
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	reader, err := introspect.NewReader(srcDB, srcCfg, st.Catalog(), log)
	if err != nil {
		return err
	}

	tables := syncTables
	if len(tables) == 0 {
		tables = cfg.Sync.Tables
	}
	syncer, err := introspect.NewSyncer(st, reader, source, tables, log)
	if err != nil {
		return err
	}

	var summary *introspect.Summary
	run := func() error {
		var err error
		summary, err = syncer.Run(ctx)
		return err
	}

	if syncForce {
		log.Warnw("Skipping advisory lock acquisition (--force flag used)", "source", source)
		err = run()
	} else {
		err = lock.WithSyncLock(ctx, srcDB, srcCfg.Dialect, source, cfg.Sync.LockTimeout, run)
	}
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return fmt.Errorf("sync of %s is already running on another instance (use --force to override)", source)
		}
		if errors.Is(err, context.Canceled) {
			log.Warn("Sync cancelled by user")
			return nil
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	printSummary(out, summary)

	if method == verifier.MethodSkip {
		return nil
	}
	_, err = verifyCatalog(ctx, out, st, reader, method, tables, log)
	return err
}

func printSummary(w io.Writer, s *introspect.Summary) {
	fmt.Fprintln(w)
	printHeader(w, "Sync Complete: %s", s.Source)
	fmt.Fprintf(w, "Catalog: %s\n", s.Catalog)
	fmt.Fprintf(w, "Schema: %s\n", s.Schema)
	fmt.Fprintf(w, "Duration: %s\n\n", s.Duration)

	width := len("Table")
	for _, t := range s.Tables {
		if n := len(t.Table); n > width {
			width = n
		}
	}
	fmt.Fprintf(w, "%s %6s %6s %8s %7s\n", pad("Table", width), "Rows", "Added", "Modified", "Removed")
	for _, t := range s.Tables {
		fmt.Fprintf(w, "%s %6d %6d %8d %7d\n", pad(t.Table, width), t.Rows, t.Added, t.Modified, t.Removed)
	}
	fmt.Fprintf(w, "\nChanges: %d\n", s.Changes())
	fmt.Fprintf(w, "Suggestions: %d\n", s.Suggestions)
}
