package introspect

import "github.com/dbsmedya/gocatalog/internal/config"

// tableQuery reads one catalog table from a source's information_schema.
// The query selects the catalog table's columns in descriptor order and
// takes the schema name as its only argument.
type tableQuery struct {
	table string
	query string
	// scope names the columns holding the catalog and schema name; rows
	// outside that scope belong to other sources and are left alone.
	catalogColumn string
	schemaColumn  string
	// fill completes a row with values derived in Go.
	fill func(row []any)
}

var mysqlQueries = []tableQuery{
	{
		table:         "_information_schema_catalog_name",
		query:         `SELECT DISTINCT CATALOG_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?`,
		catalogColumn: "catalog_name",
	},
	{
		table: "_schemata",
		query: `SELECT CATALOG_NAME, SCHEMA_NAME, NULL,
       CASE WHEN SCHEMA_NAME IN ('mysql', 'information_schema', 'performance_schema', 'sys') THEN 'YES' ELSE 'NO' END,
       CASE WHEN SCHEMA_NAME = DATABASE() THEN 'YES' ELSE 'NO' END
FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?`,
		catalogColumn: "catalog_name",
		schemaColumn:  "schema_name",
	},
	{
		table: "_tables",
		query: `SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE,
       CASE WHEN TABLE_TYPE = 'BASE TABLE' THEN 'YES' ELSE 'NO' END,
       NULLIF(TABLE_COMMENT, ''), TABLE_NAME, CONCAT(TABLE_SCHEMA, '.', TABLE_NAME), NULL
FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_views",
		query: `SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, VIEW_DEFINITION, CHECK_OPTION, IS_UPDATABLE
FROM information_schema.VIEWS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_columns",
		query: `SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, ORDINAL_POSITION, COLUMN_DEFAULT,
       IS_NULLABLE, DATA_TYPE, NULL, NULL, CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE,
       NULLIF(EXTRA, ''), NULLIF(COLUMN_COMMENT, '')
FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, ORDINAL_POSITION`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
		fill:          fillGType,
	},
	{
		table: "_table_constraints",
		query: `SELECT CONSTRAINT_CATALOG, TABLE_SCHEMA, TABLE_NAME, CONSTRAINT_NAME, CONSTRAINT_TYPE, 'NO', 'NO'
FROM information_schema.TABLE_CONSTRAINTS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, CONSTRAINT_NAME`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_referential_constraints",
		query: `SELECT CONSTRAINT_CATALOG, CONSTRAINT_SCHEMA, TABLE_NAME, CONSTRAINT_NAME,
       UNIQUE_CONSTRAINT_CATALOG, UNIQUE_CONSTRAINT_SCHEMA, REFERENCED_TABLE_NAME, UNIQUE_CONSTRAINT_NAME,
       MATCH_OPTION, UPDATE_RULE, DELETE_RULE
FROM information_schema.REFERENTIAL_CONSTRAINTS WHERE CONSTRAINT_SCHEMA = ? ORDER BY TABLE_NAME, CONSTRAINT_NAME`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_key_column_usage",
		query: `SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, CONSTRAINT_NAME, COLUMN_NAME, ORDINAL_POSITION
FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, CONSTRAINT_NAME, ORDINAL_POSITION`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
}

var postgresQueries = []tableQuery{
	{
		table:         "_information_schema_catalog_name",
		query:         `SELECT catalog_name FROM information_schema.information_schema_catalog_name WHERE $1::text IS NOT NULL`,
		catalogColumn: "catalog_name",
	},
	{
		table: "_schemata",
		query: `SELECT catalog_name, schema_name, schema_owner,
       CASE WHEN schema_name IN ('pg_catalog', 'information_schema') THEN 'YES' ELSE 'NO' END,
       CASE WHEN schema_name = current_schema() THEN 'YES' ELSE 'NO' END
FROM information_schema.schemata WHERE schema_name = $1`,
		catalogColumn: "catalog_name",
		schemaColumn:  "schema_name",
	},
	{
		table: "_tables",
		query: `SELECT table_catalog, table_schema, table_name, table_type, is_insertable_into,
       NULL, table_name, table_schema || '.' || table_name, NULL
FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_views",
		query: `SELECT table_catalog, table_schema, table_name, view_definition, check_option, is_updatable
FROM information_schema.views WHERE table_schema = $1 ORDER BY table_name`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_columns",
		query: `SELECT table_catalog, table_schema, table_name, column_name, ordinal_position, column_default,
       is_nullable, data_type, CASE WHEN data_type = 'ARRAY' THEN udt_name END, NULL,
       character_maximum_length, numeric_precision, numeric_scale, NULL, NULL
FROM information_schema.columns WHERE table_schema = $1 ORDER BY table_name, ordinal_position`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
		fill:          fillGType,
	},
	{
		table: "_table_constraints",
		query: `SELECT table_catalog, table_schema, table_name, constraint_name, constraint_type,
       is_deferrable, initially_deferred
FROM information_schema.table_constraints WHERE table_schema = $1 ORDER BY table_name, constraint_name`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_referential_constraints",
		query: `SELECT tc.table_catalog, tc.table_schema, tc.table_name, rc.constraint_name,
       ref.table_catalog, ref.table_schema, ref.table_name, rc.unique_constraint_name,
       rc.match_option, rc.update_rule, rc.delete_rule
FROM information_schema.referential_constraints rc
JOIN information_schema.table_constraints tc
  ON tc.constraint_schema = rc.constraint_schema AND tc.constraint_name = rc.constraint_name
JOIN information_schema.table_constraints ref
  ON ref.constraint_schema = rc.unique_constraint_schema AND ref.constraint_name = rc.unique_constraint_name
WHERE rc.constraint_schema = $1 ORDER BY tc.table_name, rc.constraint_name`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
	{
		table: "_key_column_usage",
		query: `SELECT table_catalog, table_schema, table_name, constraint_name, column_name, ordinal_position
FROM information_schema.key_column_usage WHERE table_schema = $1 ORDER BY table_name, constraint_name, ordinal_position`,
		catalogColumn: "table_catalog",
		schemaColumn:  "table_schema",
	},
}

func queriesFor(dialect string) ([]tableQuery, bool) {
	switch dialect {
	case config.DialectMySQL:
		return mysqlQueries, true
	case config.DialectPostgres:
		return postgresQueries, true
	default:
		return nil, false
	}
}
