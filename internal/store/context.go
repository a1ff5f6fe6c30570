package store

import (
	"context"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// MetaContext scopes a modification to the rows of Table whose columns hold
// the given values.
type MetaContext struct {
	Table   string
	Columns *orderedmap.OrderedMap[string, any]
}

// NewMetaContext returns an empty context for table; without columns it
// covers the whole table.
func NewMetaContext(table string) *MetaContext {
	return &MetaContext{Table: table, Columns: orderedmap.NewOrderedMap[string, any]()}
}

// Set adds a column restriction and returns the context.
func (mc *MetaContext) Set(column string, value any) *MetaContext {
	mc.Columns.Set(column, value)
	return mc
}

// ModifyWithContext is Modify with a condition built from mc: one equality
// per column, joined with AND. A nil value matches NULL.
func (s *Store) ModifyWithContext(ctx context.Context, mc *MetaContext, data *types.Table) error {
	ts, err := s.lookup(mc.Table)
	if err != nil {
		return err
	}
	if mc.Columns == nil || mc.Columns.Len() == 0 {
		return s.Modify(ctx, mc.Table, data, "", nil)
	}

	conds := make([]string, 0, mc.Columns.Len())
	values := make(map[string]any, mc.Columns.Len())
	for el := mc.Columns.Front(); el != nil; el = el.Next() {
		idx := ts.desc.ColumnIndex(el.Key)
		if idx < 0 {
			return newError(KindModifyContents, mc.Table, nil, "unknown context column %q", el.Key)
		}
		col := ts.desc.Columns[idx]
		conds = append(conds, sqlutil.QuoteIdentifier(col.Name)+" = ##"+col.Name+"::"+col.Kind.String()+"::NULL")
		values[col.Name] = el.Value
	}
	return s.Modify(ctx, mc.Table, data, strings.Join(conds, " AND "), values)
}
