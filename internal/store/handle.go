// Package store is the catalog store: it creates the catalog objects in an
// embedded database, reconciles freshly introspected rows into them and
// answers ad hoc extraction queries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/dbsmedya/gocatalog/internal/logger"
	"github.com/dbsmedya/gocatalog/internal/schema"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// DefaultExtractCacheSize is the number of compiled extraction statements
// kept when Options leaves it unset.
const DefaultExtractCacheSize = 64

// Options configure Open. Every field is optional.
type Options struct {
	Catalog  *schema.Catalog // defaults to schema.Default()
	Logger   *logger.Logger
	Renderer DDLRenderer // defaults to SQLiteRenderer
	// ExtractCacheSize bounds the compiled statement cache; negative
	// disables it, zero selects DefaultExtractCacheSize.
	ExtractCacheSize int
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// tableStatements are the statements reconciliation runs against one table.
// Placeholders ##+N carry new values and ##-N existing values of column N.
type tableStatements struct {
	desc      *schema.Table
	selectAll string
	deleteAll string
	insert    *sqlutil.Statement
	update    *sqlutil.Statement
	delete    *sqlutil.Statement
}

// Store is a catalog store. It is not safe for concurrent use.
type Store struct {
	db       *sql.DB
	catalog  *schema.Catalog
	log      *logger.Logger
	renderer DDLRenderer
	tables   map[string]*tableStatements
	cache    *stmtCache
	version  int

	tx      *sql.Tx
	pending []*ChangeBatch
	reset   *resetState

	suggestListeners []SuggestFunc
	changeListeners  []ChangeFunc
}

// Open wraps db in a Store and runs the bootstrap gate: the catalog objects
// are created on first use and the stored schema version is checked.
// The store takes ownership of db.
func Open(ctx context.Context, db *sql.DB, opts Options) (*Store, error) {
	s := &Store{
		db:       db,
		catalog:  opts.Catalog,
		log:      opts.Logger,
		renderer: opts.Renderer,
		tables:   make(map[string]*tableStatements),
	}
	if s.catalog == nil {
		s.catalog = schema.Default()
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	s.log = s.log.Named(logger.ComponentStore)
	if s.renderer == nil {
		s.renderer = SQLiteRenderer{}
	}
	size := opts.ExtractCacheSize
	if size == 0 {
		size = DefaultExtractCacheSize
	}
	s.cache = newStmtCache(size)

	for _, name := range s.catalog.TableNames() {
		t, _ := s.catalog.Table(name)
		s.tables[name] = buildStatements(t)
	}

	if err := s.bootstrap(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func buildStatements(t *schema.Table) *tableStatements {
	name := sqlutil.QuoteIdentifier(t.Name())
	cols := make([]string, len(t.Columns))
	newVals := make([]string, len(t.Columns))
	sets := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = sqlutil.QuoteIdentifier(c.Name)
		newVals[i] = placeholder(newKey(i), c)
		sets[i] = cols[i] + " = " + newVals[i]
	}
	where := make([]string, len(t.PrimaryKey()))
	for i, idx := range t.PrimaryKey() {
		where[i] = cols[idx] + " = " + placeholder(oldKey(idx), t.Columns[idx])
	}
	pkCond := strings.Join(where, " AND ")

	return &tableStatements{
		desc:      t,
		selectAll: "SELECT " + strings.Join(cols, ", ") + " FROM " + name,
		deleteAll: "DELETE FROM " + name,
		insert:    sqlutil.MustCompile("INSERT INTO " + name + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(newVals, ", ") + ")"),
		update:    sqlutil.MustCompile("UPDATE " + name + " SET " + strings.Join(sets, ", ") + " WHERE " + pkCond),
		delete:    sqlutil.MustCompile("DELETE FROM " + name + " WHERE " + pkCond),
	}
}

func placeholder(name string, c schema.Column) string {
	p := "##" + name + "::" + c.Kind.String()
	if c.Nullable {
		p += "::NULL"
	}
	return p
}

func newKey(i int) string { return "+" + strconv.Itoa(i) }
func oldKey(i int) string { return "-" + strconv.Itoa(i) }

// Close rolls back any open transaction and closes the connection.
func (s *Store) Close() error {
	if s.tx != nil {
		_ = s.rollback()
	}
	s.reset = nil
	return s.db.Close()
}

// Catalog returns the descriptors the store was opened with.
func (s *Store) Catalog() *schema.Catalog {
	return s.catalog
}

// SchemaVersion returns the catalog schema version found in storage.
func (s *Store) SchemaVersion() int {
	return s.version
}

// SchemaTables returns every catalog table and view in creation order:
// each object comes after the objects it depends on.
func (s *Store) SchemaTables() []string {
	return s.catalog.Names()
}

// DependentTables returns the tables whose rows are deleted in cascade with
// rows of table.
func (s *Store) DependentTables(table string) []string {
	return s.catalog.Dependents(table)
}

// CreateModifyData returns an empty snapshot shaped for Modify on table.
func (s *Store) CreateModifyData(table string) (*types.Table, error) {
	ts, err := s.lookup(table)
	if err != nil {
		return nil, err
	}
	return types.NewTable(ts.desc.ColumnNames()...), nil
}

func (s *Store) lookup(table string) (*tableStatements, error) {
	if ts, ok := s.tables[table]; ok {
		return ts, nil
	}
	if obj, ok := s.catalog.Lookup(table); ok && obj.Kind() == schema.KindView {
		return nil, newError(KindInternal, table, nil, "cannot modify a view")
	}
	return nil, newError(KindInternal, table, nil, "unknown catalog table")
}

// q returns the active transaction, or the database when none is active.
func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Store) inTransaction() bool {
	return s.tx != nil
}

// beginIfNone starts a transaction unless one is active and reports whether
// it did. Only the caller that started a transaction ends it.
func (s *Store) beginIfNone(ctx context.Context) (bool, error) {
	if s.tx != nil {
		return false, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return true, nil
}

func (s *Store) commit() error {
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) rollback() error {
	tx := s.tx
	if tx == nil {
		return nil
	}
	s.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// readRows reads every row of rows. When desc is set, values are coerced to
// the kinds of its columns.
func readRows(rows *sql.Rows, desc *schema.Table) (*types.Table, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var result *types.Table
	if desc != nil {
		result = types.NewTable(desc.ColumnNames()...)
	} else {
		result = types.NewTable(cols...)
	}

	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range raw {
			if desc != nil {
				raw[i] = types.Coerce(v, desc.Columns[i].Kind)
			} else {
				raw[i] = types.Normalize(v)
			}
		}
		result.Rows = append(result.Rows, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
