package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gocatalog/internal/config"
	"github.com/dbsmedya/gocatalog/internal/database"
	"github.com/dbsmedya/gocatalog/internal/types"
)

func openAt(t *testing.T, path string) (*Store, error) {
	t.Helper()
	db, err := database.OpenCatalog(context.Background(), &config.CatalogConfig{Path: path})
	require.NoError(t, err)
	s, err := Open(context.Background(), db, Options{})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := openAt(t, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedSchema inserts the catalog and schema rows _tables rows hang off.
func seedSchema(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	cat := types.NewTable("catalog_name")
	require.NoError(t, cat.Append("cat"))
	require.NoError(t, s.Modify(ctx, "_information_schema_catalog_name", cat, "", nil))

	sch := types.NewTable("catalog_name", "schema_name", "schema_owner", "schema_internal", "schema_default")
	require.NoError(t, sch.Append("cat", "public", nil, false, true))
	require.NoError(t, s.Modify(ctx, "_schemata", sch, "", nil))
}

func tableRow(name string) []any {
	return []any{"cat", "public", name, "BASE TABLE", true, nil, name, "public." + name, nil}
}

func columnRow(table, column string, pos int) []any {
	return []any{"cat", "public", table, column, pos, nil, false, "integer", nil, "gint", nil, nil, nil, nil, nil}
}

func rowsOf(width int, rows ...[]any) *types.Table {
	t := &types.Table{}
	for _, r := range rows {
		if len(r) != width {
			panic("bad fixture row")
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func count(t *testing.T, s *Store, table string) int {
	t.Helper()
	res, err := s.Extract(context.Background(), `SELECT count(*) FROM "`+table+`"`, nil)
	require.NoError(t, err)
	return int(types.ToInt64(res.Rows[0][0]))
}

func TestOpen_Bootstrap(t *testing.T) {
	s := openTestStore(t)

	assert.Equal(t, 1, s.SchemaVersion())

	names := s.SchemaTables()
	require.Len(t, names, s.Catalog().Len())
	position := make(map[string]int, len(names))
	for i, n := range names {
		position[n] = i
	}
	for _, obj := range s.Catalog().Objects() {
		for _, dep := range obj.DependsOn() {
			assert.Less(t, position[dep], position[obj.Name()], "%s must come after %s", obj.Name(), dep)
		}
	}

	// every object exists in storage
	for _, name := range names {
		_, err := s.Extract(context.Background(), `SELECT * FROM "`+name+`"`, nil)
		assert.NoError(t, err, name)
	}

	v, found, err := s.Attribute(context.Background(), VersionAttribute)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", v)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := openAt(t, path)
	require.NoError(t, err)
	seedSchema(t, s)
	require.NoError(t, s.Close())

	s, err = openAt(t, path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 1, s.SchemaVersion())
	assert.Equal(t, 1, count(t, s, "_schemata"))
}

func TestOpen_IncorrectVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := openAt(t, path)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE "_attributes" SET "att_value" = '7' WHERE "att_name" = '_schema_version'`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = openAt(t, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncorrectSchema))

	var storeErr *Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, KindIncorrectSchema, storeErr.Kind)
}

func TestOpen_UnparseableVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := openAt(t, path)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE "_attributes" SET "att_value" = 'one' WHERE "att_name" = '_schema_version'`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = openAt(t, path)
	assert.ErrorIs(t, err, ErrIncorrectSchema)
}

func TestDependentTables(t *testing.T) {
	s := openTestStore(t)

	assert.Equal(t, []string{"_columns", "_table_constraints", "_table_indexes", "_referential_constraints"},
		s.DependentTables("_tables"))
	assert.Empty(t, s.DependentTables("_builtin_data_types"))
	assert.Empty(t, s.DependentTables("_all_objects"))
}

func TestCreateModifyData(t *testing.T) {
	s := openTestStore(t)

	data, err := s.CreateModifyData("_schemata")
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog_name", "schema_name", "schema_owner", "schema_internal", "schema_default"}, data.Columns)
	assert.Equal(t, 0, data.Len())

	_, err = s.CreateModifyData("_nope")
	assert.ErrorIs(t, err, ErrInternal)
}
