package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/database"
	"github.com/dbsmedya/gocatalog/internal/introspect"
	"github.com/dbsmedya/gocatalog/internal/logger"
	"github.com/dbsmedya/gocatalog/internal/store"
	"github.com/dbsmedya/gocatalog/internal/verifier"
)

var (
	verifyMethod string
	verifyTables []string
)

var verifyCmd = &cobra.Command{
	Use:   "verify SOURCE",
	Short: "Check the catalog against a live database",
	Long: `Verify introspects a configured source database and compares the result
with the catalog rows of that source, without changing either side.

Methods:
  count   compare row counts per catalog table (fast)
  sha256  compare a digest of every row (detects changed values)

Example:
  gocatalog verify production --method sha256`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyMethod, "method", "m", "count",
		"Verification method (count, sha256)")
	verifyCmd.Flags().StringSliceVarP(&verifyTables, "tables", "t", nil,
		"Catalog tables to verify (default: all introspected)")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	source := args[0]

	method, err := verifier.ParseMethod(verifyMethod)
	if err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	dbManager := database.NewManager(cfg)
	defer dbManager.Close()

	srcDB, srcCfg, err := dbManager.ConnectSource(ctx, source)
	if err != nil {
		return err
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

	_, err = verifyCatalog(ctx, cmd.OutOrStdout(), st, reader, method, verifyTables, log)
	return err
}

// verifyCatalog runs a verification and prints its per-table results.
func verifyCatalog(ctx context.Context, w io.Writer, st *store.Store, reader *introspect.Reader,
	method verifier.Method, tables []string, log *logger.Logger) (*verifier.Stats, error) {
	v, err := verifier.NewVerifier(st, reader, method, log)
	if err != nil {
		return nil, err
	}

	stats, err := v.Verify(ctx, tables)
	if stats != nil && stats.Method != verifier.MethodSkip {
		printVerifyStats(w, stats)
	}
	if err != nil {
		if errors.Is(err, verifier.ErrMismatch) {
			return stats, fmt.Errorf("catalog is out of date, run sync: %w", err)
		}
		return stats, fmt.Errorf("verification failed: %w", err)
	}
	return stats, nil
}

func printVerifyStats(w io.Writer, stats *verifier.Stats) {
	fmt.Fprintln(w)
	printSection(w, fmt.Sprintf("Verification (%s)", stats.Method))

	width := 0
	for _, r := range stats.Results {
		if n := len(r.Table); n > width {
			width = n
		}
	}
	for _, r := range stats.Results {
		if r.Match {
			fmt.Fprintf(w, "  ✅ %s %d rows\n", pad(r.Table, width), r.SourceCount)
			continue
		}
		fmt.Fprintf(w, "  ❌ %s %s\n", pad(r.Table, width), r.ErrorMessage)
	}
	fmt.Fprintf(w, "Tables: %d verified, %d passed, %d failed\n",
		stats.TablesVerified, stats.TablesPassed, stats.TablesFailed)
}
