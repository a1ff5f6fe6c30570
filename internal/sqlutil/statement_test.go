package sqlutil

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gocatalog/internal/types"
)

func TestCompile_Params(t *testing.T) {
	stmt, err := Compile("SELECT * FROM _tables WHERE table_schema = ##schema::string AND table_name = ##name::string::NULL OR table_schema = ##schema")
	require.NoError(t, err)

	assert.Equal(t, []Param{
		{Name: "schema", Kind: types.KindString},
		{Name: "name", Kind: types.KindString, Nullable: true},
	}, stmt.Params())
	assert.Equal(t, "SELECT", stmt.FirstKeyword())

	p, ok := stmt.Param("name")
	assert.True(t, ok)
	assert.True(t, p.Nullable)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("   ")
	assert.ErrorIs(t, err, ErrEmptyStatement)

	_, err = Compile("SELECT 1; SELECT 2")
	assert.ErrorIs(t, err, ErrMultipleStatements)

	_, err = Compile("SELECT ##x::geometry")
	assert.Error(t, err)

	_, err = Compile("SELECT ##x::string, ##x::gint")
	assert.Error(t, err)
}

func TestBind(t *testing.T) {
	stmt := MustCompile("SELECT * FROM _columns WHERE table_name = ##name::string AND ordinal_position > ##pos::gint")

	query, args, err := stmt.Bind(map[string]any{"name": "users", "pos": 2})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM _columns WHERE table_name = ? AND ordinal_position > ?", query)
	assert.Equal(t, []any{"users", int64(2)}, args)
}

func TestBind_RepeatedPlaceholder(t *testing.T) {
	stmt := MustCompile("SELECT ##v::gint + ##v::gint")
	query, args, err := stmt.Bind(map[string]any{"v": 3})
	require.NoError(t, err)
	assert.Equal(t, "SELECT ? + ?", query)
	assert.Equal(t, []any{int64(3), int64(3)}, args)
}

func TestBind_NullComparison(t *testing.T) {
	stmt := MustCompile("SELECT * FROM t WHERE a = ##a::string::NULL AND b <> ##b::string::NULL")

	query, args, err := stmt.Bind(map[string]any{"a": nil, "b": nil})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a IS NULL AND b IS NOT NULL", query)
	assert.Empty(t, args)

	query, args, err = stmt.Bind(map[string]any{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? AND b IS NOT NULL", query)
	assert.Equal(t, []any{"x"}, args)
}

func TestBind_NullInSetClause(t *testing.T) {
	stmt := MustCompile(`UPDATE t SET a = ##+0::string::NULL WHERE id = ##-1::gint`)

	query, args, err := stmt.Bind(map[string]any{"+0": nil, "-1": 5})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE t SET a = ? WHERE id = ?`, query)
	assert.Equal(t, []any{nil, int64(5)}, args)
}

func TestBind_Unbound(t *testing.T) {
	stmt := MustCompile("SELECT * FROM t WHERE a = ##a::string AND b = ##b::gint")

	_, _, err := stmt.Bind(map[string]any{})
	var unbound *UnboundError
	require.True(t, errors.As(err, &unbound))
	assert.Equal(t, []string{"a", "b"}, unbound.Names)
}

func TestBind_KindChecks(t *testing.T) {
	stmt := MustCompile("SELECT ##n::gint, ##f::gdouble, ##s::string")

	_, _, err := stmt.Bind(map[string]any{"n": "one", "f": 1, "s": "x"})
	var bindErr *BindError
	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, "n", bindErr.Name)

	_, args, err := stmt.Bind(map[string]any{"n": 1, "f": 1, "s": "x"})
	require.NoError(t, err, "integers are accepted for float placeholders")
	assert.Equal(t, []any{int64(1), int64(1), "x"}, args)

	_, _, err = stmt.Bind(map[string]any{"n": nil, "f": 1.0, "s": "x"})
	require.True(t, errors.As(err, &bindErr))
	assert.Contains(t, bindErr.Error(), "does not accept NULL")
}

func TestMissingAndUnused(t *testing.T) {
	stmt := MustCompile("SELECT * FROM t WHERE a = ##a AND b = ##b::string::NULL")
	values := map[string]any{"a": 1, "extra": 2, "other": 3}

	assert.Equal(t, []string{"b"}, stmt.Missing(values))

	unused := stmt.Unused(values)
	sort.Strings(unused)
	assert.Equal(t, []string{"extra", "other"}, unused)
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("SELECT 1; SELECT 2") })
}
