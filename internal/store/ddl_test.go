package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/gocatalog/internal/schema"
)

func TestSQLiteRenderer_Table(t *testing.T) {
	obj, ok := schema.Default().Lookup("_attributes")
	require.True(t, ok)

	ddl, err := SQLiteRenderer{}.RenderCreate(obj)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "_attributes" ("att_name" TEXT NOT NULL, "att_value" TEXT, PRIMARY KEY ("att_name"))`, ddl)
}

func TestSQLiteRenderer_CompositeKey(t *testing.T) {
	obj, ok := schema.Default().Lookup("_schemata")
	require.True(t, ok)

	ddl, err := SQLiteRenderer{}.RenderCreate(obj)
	require.NoError(t, err)
	assert.Contains(t, ddl, `"schema_internal" BOOLEAN NOT NULL`)
	assert.Contains(t, ddl, `"schema_default" BOOLEAN,`)
	assert.True(t, strings.HasSuffix(ddl, `PRIMARY KEY ("catalog_name", "schema_name"))`), ddl)
}

func TestSQLiteRenderer_View(t *testing.T) {
	obj, ok := schema.Default().Lookup("_fk_summary")
	require.True(t, ok)

	ddl, err := SQLiteRenderer{}.RenderCreate(obj)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ddl, `CREATE VIEW "_fk_summary" AS SELECT`), ddl)
}

func TestSQLiteRenderer_EveryObject(t *testing.T) {
	for _, obj := range schema.Default().Objects() {
		_, err := SQLiteRenderer{}.RenderCreate(obj)
		assert.NoError(t, err, obj.Name())
	}
}
