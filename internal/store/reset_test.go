package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataReset_ReplacesTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedSchema(t, s)
	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("orders"), tableRow("customers")), "", nil))
	require.NoError(t, s.Modify(ctx, "_columns", rowsOf(15, columnRow("orders", "id", 1)), "", nil))

	batches := recordBatches(s)
	suggestions := 0
	s.OnSuggestUpdate(func(context.Context, Suggestion) error {
		suggestions++
		return nil
	})

	require.NoError(t, s.BeginDataReset(ctx))
	assert.True(t, s.inTransaction())

	// the condition is ignored: the whole table is replaced
	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("invoices")), `table_name = 'orders'`, nil))
	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("payments")), "", nil))
	require.NoError(t, s.FinishDataReset())

	res, err := s.Extract(ctx, `SELECT table_name FROM _tables ORDER BY table_name`, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"invoices"}, {"payments"}}, res.Rows)

	// no cascade in reset mode
	assert.Equal(t, 1, count(t, s, "_columns"))
	assert.Empty(t, *batches)
	assert.Equal(t, 0, suggestions)
	assert.False(t, s.inTransaction())
}

func TestDataReset_Cancel(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedSchema(t, s)
	require.NoError(t, s.Modify(ctx, "_tables", rowsOf(9, tableRow("orders")), "", nil))

	require.NoError(t, s.BeginDataReset(ctx))
	require.NoError(t, s.Modify(ctx, "_tables", nil, "", nil))
	assert.Equal(t, 0, count(t, s, "_tables"))
	require.NoError(t, s.CancelDataReset())

	assert.Equal(t, 1, count(t, s, "_tables"))
}

func TestDataReset_Misuse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.FinishDataReset(), ErrInternal)
	assert.ErrorIs(t, s.CancelDataReset(), ErrInternal)

	require.NoError(t, s.BeginDataReset(ctx))
	assert.ErrorIs(t, s.BeginDataReset(ctx), ErrInternal)
	assert.ErrorIs(t, s.Modify(ctx, "_attributes", nil, "", nil), ErrInternal)
	require.NoError(t, s.CancelDataReset())
}
