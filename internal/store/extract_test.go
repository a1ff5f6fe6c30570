package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dbsmedya/gocatalog/internal/config"
	"github.com/dbsmedya/gocatalog/internal/database"
	"github.com/dbsmedya/gocatalog/internal/logger"
)

func TestExtract_InsertThenRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedSchema(t, s)

	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("orders")), "", nil))
	require.NoError(t, s.Modify(ctx, "_columns", rowsOf(15, columnRow("orders", "id", 1)), "", nil))

	res, err := s.Extract(ctx, `SELECT table_name, table_type FROM _tables WHERE table_name = ##n::string`,
		map[string]any{"n": "orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"table_name", "table_type"}, res.Columns)
	assert.Equal(t, [][]any{{"orders", "BASE TABLE"}}, res.Rows)

	require.NoError(t, s.Modify(ctx, "_tables", nil, `table_name = ##n::string`, map[string]any{"n": "orders"}))

	res, err = s.Extract(ctx, `SELECT * FROM _tables WHERE table_name = ##n::string`, map[string]any{"n": "orders"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())

	res, err = s.Extract(ctx, `SELECT * FROM _columns WHERE table_name = ##n::string`, map[string]any{"n": "orders"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestExtract_Views(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedSchema(t, s)
	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("orders"), tableRow("customers")), "", nil))
	require.NoError(t, s.Modify(ctx, "_table_constraints", rowsOf(7,
		[]any{"cat", "public", "orders", "orders_customer_fk", "FOREIGN KEY", nil, nil},
	), "", nil))
	require.NoError(t, s.Modify(ctx, "_referential_constraints", rowsOf(11,
		[]any{"cat", "public", "orders", "orders_customer_fk", "cat", "public", "customers", nil, nil, nil, "CASCADE"},
	), "", nil))
	require.NoError(t, s.Modify(ctx, "_key_column_usage", rowsOf(6,
		[]any{"cat", "public", "orders", "orders_customer_fk", "customer_id", 1},
	), "", nil))

	res, err := s.Extract(ctx, `SELECT table_name FROM _all_objects ORDER BY table_name`, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"customers"}, {"orders"}}, res.Rows)

	res, err = s.Extract(ctx, `SELECT fk_table_name, ref_table_name, column_count FROM _fk_summary`, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"orders", "customers", int64(1)}}, res.Rows)

	// removing the referenced table cascades through the referential constraint
	require.NoError(t, s.Modify(ctx, "_tables", nil, `table_name = 'customers'`, nil))
	assert.Equal(t, 0, count(t, s, "_referential_constraints"))
	assert.Equal(t, 1, count(t, s, "_key_column_usage"))
}

func TestExtract_NullablePlaceholder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedSchema(t, s)

	owned := tableRow("orders")
	owned[8] = "admin"
	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, owned, tableRow("customers")), "", nil))

	q := `SELECT table_name FROM _tables WHERE table_owner = ##owner::string::NULL`

	res, err := s.Extract(ctx, q, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"customers"}}, res.Rows)

	res, err = s.Extract(ctx, q, map[string]any{"owner": "admin"})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"orders"}}, res.Rows)
}

func TestExtract_Errors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		values map[string]any
	}{
		{name: "two statements", query: "SELECT 1; SELECT 2"},
		{name: "empty", query: "  -- nothing\n"},
		{name: "not a query", query: `DELETE FROM _tables`},
		{name: "unbound placeholder", query: `SELECT * FROM _tables WHERE table_name = ##n::string`},
		{name: "wrong kind", query: `SELECT * FROM _columns WHERE ordinal_position = ##p::gint`, values: map[string]any{"p": "one"}},
		{name: "unknown type", query: `SELECT ##p::money`},
		{name: "unknown table", query: `SELECT * FROM no_such_table`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Extract(ctx, tt.query, tt.values)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExtractSQL)
		})
	}
}

func TestExtract_WarnsOnUnusedValues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	db, err := database.OpenCatalog(context.Background(), &config.CatalogConfig{Path: ":memory:"})
	require.NoError(t, err)
	s, err := Open(context.Background(), db, Options{Logger: logger.FromZap(zap.New(core))})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Extract(context.Background(), `SELECT count(*) FROM _tables`, map[string]any{"stray": 1})
	require.NoError(t, err)

	entries := logs.FilterMessage("extraction values without placeholder").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"stray"}, entries[0].ContextMap()["names"])
}

func TestExtract_InsideTransaction(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedSchema(t, s)

	var seen int
	s.OnSuggestUpdate(func(ctx context.Context, sg Suggestion) error {
		if sg.Table != "_columns" {
			return nil
		}
		// the row being added is visible to the transaction
		res, err := s.Extract(ctx, `SELECT count(*) FROM _tables`, nil)
		if err != nil {
			return err
		}
		seen = int(res.Rows[0][0].(int64))
		return nil
	})

	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("orders")), "", nil))
	assert.Equal(t, 1, seen)
}

func TestStmtCache(t *testing.T) {
	c := newStmtCache(2)

	a, err := c.compile("SELECT 1")
	require.NoError(t, err)
	_, err = c.compile("SELECT 2")
	require.NoError(t, err)

	again, err := c.compile("SELECT 1")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = c.compile("SELECT 3")
	require.NoError(t, err)
	assert.Equal(t, 2, c.len())
	assert.Equal(t, []string{"SELECT 1", "SELECT 3"}, c.items.Keys())

	_, err = c.compile("SELECT 1; SELECT 2")
	assert.Error(t, err)
	assert.Equal(t, 2, c.len())
}

func TestStmtCache_Disabled(t *testing.T) {
	c := newStmtCache(-1)
	_, err := c.compile("SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.len())
}
