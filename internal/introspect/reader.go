// Package introspect reads the information_schema of a live MySQL or
// PostgreSQL database into catalog snapshots and reconciles them into a
// catalog store.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/dbsmedya/gocatalog/internal/config"
	"github.com/dbsmedya/gocatalog/internal/logger"
	"github.com/dbsmedya/gocatalog/internal/schema"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// CatalogTable holds the single row naming the source catalog.
const CatalogTable = "_information_schema_catalog_name"

// Reader reads catalog snapshots from one schema of a source database.
type Reader struct {
	db      *sql.DB
	dialect string
	schema  string
	catalog *schema.Catalog
	queries map[string]tableQuery
	order   []string
	logger  *logger.Logger
}

// NewReader creates a reader for the schema named in source.
func NewReader(db *sql.DB, source config.SourceConfig, cat *schema.Catalog, log *logger.Logger) (*Reader, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if source.Schema == "" {
		return nil, fmt.Errorf("source schema is required")
	}
	if cat == nil {
		cat = schema.Default()
	}
	if log == nil {
		log = logger.NewNop()
	}
	dialect := strings.ToLower(source.Dialect)
	if dialect == "" {
		dialect = config.DialectMySQL
	}
	list, ok := queriesFor(dialect)
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", source.Dialect)
	}

	r := &Reader{
		db:      db,
		dialect: dialect,
		schema:  source.Schema,
		catalog: cat,
		queries: make(map[string]tableQuery, len(list)),
		logger:  log.Named(logger.ComponentIntrospect),
	}
	for _, q := range list {
		if _, ok := cat.Table(q.table); !ok {
			continue
		}
		r.queries[q.table] = q
	}
	// catalog order, so that referenced rows are written first
	for _, name := range cat.TableNames() {
		if _, ok := r.queries[name]; ok {
			r.order = append(r.order, name)
		}
	}
	return r, nil
}

// Tables returns the catalog tables the reader can fill, in catalog order.
func (r *Reader) Tables() []string {
	return r.order
}

// Schema returns the source schema being read.
func (r *Reader) Schema() string {
	return r.schema
}

// ReadCatalogName reads the catalog the source schema belongs to. It also
// returns the snapshot it was read from. A schema the source does not
// have is an error.
func (r *Reader) ReadCatalogName(ctx context.Context) (string, *types.Table, error) {
	data, err := r.Read(ctx, CatalogTable)
	if err != nil {
		return "", nil, err
	}
	if data.Len() == 0 {
		return "", nil, fmt.Errorf("schema %s not found in source", r.schema)
	}
	name, _ := data.Rows[0][0].(string)
	return name, data, nil
}

// Scope returns the condition selecting the catalog rows of table that
// belong to the reader's catalog and schema, with its placeholder values.
// Rows outside the scope belong to other sources.
func (r *Reader) Scope(table, catalogName string) (string, map[string]any) {
	q := r.queries[table]
	cond := sqlutil.QuoteIdentifier(q.catalogColumn) + " = ##catalog::string"
	values := map[string]any{"catalog": catalogName}
	if q.schemaColumn != "" {
		cond += " AND " + sqlutil.QuoteIdentifier(q.schemaColumn) + " = ##schema::string"
		values["schema"] = r.schema
	}
	return cond, values
}

// Read returns the snapshot of one catalog table, its values converted to
// the kinds of the table's columns.
func (r *Reader) Read(ctx context.Context, table string) (*types.Table, error) {
	q, ok := r.queries[table]
	if !ok {
		return nil, fmt.Errorf("table %s cannot be introspected", table)
	}
	desc, _ := r.catalog.Table(table)

	rows, err := r.db.QueryContext(ctx, q.query, r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	if len(cols) != len(desc.Columns) {
		return nil, fmt.Errorf("introspection of %s returned %d columns, expected %d", table, len(cols), len(desc.Columns))
	}

	result := types.NewTable(desc.ColumnNames()...)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		row := make([]any, len(raw))
		for i, v := range raw {
			c, err := convertValue(v, desc.Columns[i].Kind)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", table, desc.Columns[i].Name, err)
			}
			row[i] = c
		}
		if q.fill != nil {
			q.fill(row)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", table, err)
	}

	r.logger.WithTable(table).Debugw("introspected", "schema", r.schema, "rows", result.Len())
	return result, nil
}

// convertValue turns a driver value into the representation of kind k.
// Drivers hand information_schema values back as text, integers or
// booleans depending on protocol; flags arrive as YES/NO.
func convertValue(v any, k types.Kind) (any, error) {
	v = types.Normalize(v)
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok && k != types.KindBlob {
		v = string(b)
	}

	switch k {
	case types.KindString:
		return types.Stringify(v), nil
	case types.KindInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case float64:
			return int64(x), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", x)
			}
			return n, nil
		}
	case types.KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", x)
			}
			return f, nil
		}
	case types.KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case string:
			switch strings.ToUpper(strings.TrimSpace(x)) {
			case "YES", "Y", "TRUE", "T", "1":
				return true, nil
			case "NO", "N", "FALSE", "F", "0":
				return false, nil
			}
			return nil, fmt.Errorf("invalid flag %q", x)
		}
	case types.KindBlob:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, k)
}

// gtypes maps SQL data types onto the value type names stored in the
// catalog's gtype columns.
var gtypes = map[string]string{
	"tinyint":           "gint",
	"smallint":          "gint",
	"mediumint":         "gint",
	"int":               "gint",
	"integer":           "gint",
	"bigint":            "gint64",
	"serial":            "gint",
	"bigserial":         "gint64",
	"float":             "gdouble",
	"double":            "gdouble",
	"double precision":  "gdouble",
	"real":              "gdouble",
	"decimal":           "gdouble",
	"numeric":           "gdouble",
	"boolean":           "gboolean",
	"bool":              "gboolean",
	"bit":               "gboolean",
	"blob":              "GdaBinary",
	"longblob":          "GdaBinary",
	"mediumblob":        "GdaBinary",
	"tinyblob":          "GdaBinary",
	"binary":            "GdaBinary",
	"varbinary":         "GdaBinary",
	"bytea":             "GdaBinary",
	"date":              "GDate",
	"datetime":          "GDateTime",
	"timestamp":         "GDateTime",
	"time":              "GdaTime",
	"character varying": "gchararray",
}

func gtypeFor(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	if g, ok := gtypes[dt]; ok {
		return g
	}
	if strings.HasPrefix(dt, "timestamp") {
		return "GDateTime"
	}
	if strings.HasPrefix(dt, "time") {
		return "GdaTime"
	}
	return "gchararray"
}

// fillGType sets the gtype column of a _columns row from its data type.
func fillGType(row []any) {
	dt, _ := row[7].(string)
	row[9] = gtypeFor(dt)
}
