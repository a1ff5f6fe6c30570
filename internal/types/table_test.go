package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Append(t *testing.T) {
	tbl := NewTable("name", "position")

	require.NoError(t, tbl.Append("id", 1))
	require.NoError(t, tbl.Append("label", nil))
	assert.Error(t, tbl.Append("too", "many", "values"))

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, 2, tbl.Width())
	assert.Equal(t, int64(1), tbl.Rows[0][1], "values are normalized on append")
}

func TestTable_Lookup(t *testing.T) {
	tbl := NewTable("name", "position")
	require.NoError(t, tbl.Append("id", 1))
	require.NoError(t, tbl.Append("label", 2))

	assert.Equal(t, 1, tbl.ColumnIndex("position"))
	assert.Equal(t, -1, tbl.ColumnIndex("missing"))

	v, ok := tbl.Value(1, "name")
	assert.True(t, ok)
	assert.Equal(t, "label", v)

	_, ok = tbl.Value(5, "name")
	assert.False(t, ok)

	assert.Equal(t, []any{"id", "label"}, tbl.ColumnValues("name"))
	assert.Nil(t, tbl.ColumnValues("missing"))
}

func TestTable_NilSafe(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 0, tbl.Width())
}
