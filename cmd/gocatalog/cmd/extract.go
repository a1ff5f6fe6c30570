package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// nullValue binds a nullable placeholder to NULL.
const nullValue = "NULL"

var extractParams []string

var extractCmd = &cobra.Command{
	Use:   "extract QUERY",
	Short: "Run a query against the catalog",
	Long: `Extract runs a single SELECT against the catalog and prints the result.

Placeholders are written ##name::type and bound with -p name=value. The
value is parsed according to the placeholder type; NULL binds a nullable
placeholder (##name::type::NULL) to NULL.

Example:
  gocatalog extract 'SELECT column_name FROM _columns WHERE table_name = ##t::string' -p t=orders`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringArrayVarP(&extractParams, "param", "p", nil,
		"Placeholder value as name=value (repeatable)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	query := args[0]
	values, err := parseParams(query, extractParams)
	if err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := st.Extract(ctx, query, values)
	if err != nil {
		return err
	}
	printGrid(cmd.OutOrStdout(), result)
	return nil
}

// parseParams turns name=value flags into placeholder values typed after
// the placeholders of query. Names the query does not use stay strings.
func parseParams(query string, params []string) (map[string]any, error) {
	values := make(map[string]any, len(params))
	if len(params) == 0 {
		return values, nil
	}

	stmt, err := sqlutil.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	for _, p := range params {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", p)
		}
		param, used := stmt.Param(name)
		if !used {
			values[name] = raw
			continue
		}
		v, err := parseValue(raw, param)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

func parseValue(raw string, p sqlutil.Param) (any, error) {
	if raw == nullValue && p.Nullable {
		return nil, nil
	}
	switch p.Kind {
	case types.KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case types.KindFloat:
		return strconv.ParseFloat(raw, 64)
	case types.KindBool:
		return strconv.ParseBool(raw)
	case types.KindBlob:
		return []byte(raw), nil
	default:
		return raw, nil
	}
}
