package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/google/uuid"

	"github.com/dbsmedya/gocatalog/internal/schema"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// Modify reconciles the rows of table with data. Data rows follow the
// table's column order and are the complete set of rows in scope: rows
// matched by primary key are updated when they differ, unmatched rows are
// inserted and rows in scope missing from data are removed, together with
// the rows of dependent tables referencing them. A nil data removes every
// row in scope.
//
// With a condition only the rows it selects are in scope. The condition is
// a SQL boolean expression over the table's columns and may use ##name
// placeholders bound from values.
//
// Modify runs in the active transaction, or in its own one committed on
// success. Change batches are delivered to OnChanges listeners once the
// outermost transaction has committed.
func (s *Store) Modify(ctx context.Context, table string, data *types.Table, condition string, values map[string]any) (err error) {
	ts, err := s.lookup(table)
	if err != nil {
		return err
	}
	if err := checkData(ts.desc, data); err != nil {
		return err
	}
	if s.reset != nil {
		return s.resetModify(ctx, ts, data)
	}
	if ts.desc.Name() == attributesTable {
		if condition, err = attributeScope(data, condition); err != nil {
			return err
		}
	}

	var where *sqlutil.Statement
	if strings.TrimSpace(condition) != "" {
		where, err = s.cache.compile(ts.selectAll + " WHERE " + condition)
		if err != nil {
			return newError(KindModifyContents, table, err, "invalid condition")
		}
	}

	started, err := s.beginIfNone(ctx)
	if err != nil {
		return err
	}
	if started {
		defer func() {
			if err == nil {
				return
			}
			s.pending = nil
			if rbErr := s.rollback(); rbErr != nil {
				s.log.WithTable(table).Warnw("rollback failed", "error", rbErr)
			}
		}()
	}

	if err = s.modify(ctx, ts, data, where, values); err != nil {
		return err
	}
	if started {
		if err = s.commit(); err != nil {
			return err
		}
		s.log.WithTable(table).Infow("catalog modification committed", "batches", len(s.pending))
		s.deliver()
	}
	return nil
}

// checkData validates the shape of data against the table descriptor.
// Data without column names is taken positionally.
func checkData(desc *schema.Table, data *types.Table) error {
	if data == nil {
		return nil
	}
	if len(data.Columns) > 0 {
		names := desc.ColumnNames()
		if len(data.Columns) != len(names) {
			return newError(KindModifyContents, desc.Name(), nil,
				"data has %d columns, table has %d", len(data.Columns), len(names))
		}
		for i, name := range names {
			if data.Columns[i] != name {
				return newError(KindModifyContents, desc.Name(), nil,
					"data column %d is %q, expected %q", i, data.Columns[i], name)
			}
		}
	}
	for i, row := range data.Rows {
		if len(row) != len(desc.Columns) {
			return newError(KindModifyContents, desc.Name(), nil,
				"row %d has %d values, table has %d columns", i, len(row), len(desc.Columns))
		}
	}
	return nil
}

// modify is one reconciliation step. It runs inside the transaction and
// recurses into dependent tables for removed rows.
func (s *Store) modify(ctx context.Context, ts *tableStatements, data *types.Table, where *sqlutil.Statement, values map[string]any) error {
	desc := ts.desc
	log := s.log.WithTable(desc.Name())

	current, err := s.fetch(ctx, ts, where, values)
	if err != nil {
		return err
	}

	batch := &ChangeBatch{ID: uuid.New(), Table: desc.Name()}
	s.pending = append(s.pending, batch)

	pk := desc.PrimaryKey()
	index := make(map[string]int, current.Len())
	for i, row := range current.Rows {
		index[rowKey(row, pk)] = i
	}
	marked := make([]bool, current.Len())
	for i := range marked {
		marked[i] = true
	}

	if data != nil {
		for _, raw := range data.Rows {
			row := prepareRow(desc, raw)
			i, found := index[rowKey(row, pk)]
			if !found {
				if err := s.insertRow(ctx, ts, row); err != nil {
					return err
				}
				batch.Changes = append(batch.Changes, newChange(ChangeAdd, desc.Name(), row, nil))
			} else {
				marked[i] = false
				old := current.Rows[i]
				changed, err := rowChanged(desc, old, row)
				if err != nil {
					return err
				}
				if changed {
					if err := s.updateRow(ctx, ts, old, row); err != nil {
						return err
					}
					batch.Changes = append(batch.Changes, newChange(ChangeModify, desc.Name(), row, old))
				}
			}

			for _, rk := range desc.ReverseKeys {
				keys := orderedmap.NewOrderedMap[string, any]()
				for j, col := range rk.ColumnNames {
					keys.Set(col, row[rk.RefIndexes[j]])
				}
				if err := s.suggest(ctx, Suggestion{Table: rk.Owner, Keys: keys}); err != nil {
					return fmt.Errorf("update suggestion for %s: %w", rk.Owner, err)
				}
			}
		}
	}

	for i, row := range current.Rows {
		if !marked[i] {
			continue
		}
		batch.Changes = append(batch.Changes, newChange(ChangeRemove, desc.Name(), nil, row))
		for _, rk := range desc.ReverseKeys {
			if err := s.cascade(ctx, rk, row); err != nil {
				return err
			}
		}
		if err := s.deleteRow(ctx, ts, row); err != nil {
			return err
		}
	}

	log.Debugw("table reconciled",
		"current", current.Len(),
		"new", data.Len(),
		"changes", len(batch.Changes))
	return nil
}

// cascade removes the rows of the foreign key's owner that reference row.
func (s *Store) cascade(ctx context.Context, rk *schema.ForeignKey, row []any) error {
	child, ok := s.tables[rk.Owner]
	if !ok {
		return newError(KindInternal, rk.Owner, nil, "unknown cascade target")
	}
	where, err := s.cache.compile(child.selectAll + " WHERE " + rk.Condition)
	if err != nil {
		return newError(KindInternal, rk.Owner, err, "cascade condition")
	}
	values := make(map[string]any, len(rk.ColumnNames))
	for j, col := range rk.ColumnNames {
		values[col] = row[rk.RefIndexes[j]]
	}
	s.log.WithTable(rk.Owner).Debugw("cascading delete", "referenced", rk.Referenced)
	return s.modify(ctx, child, nil, where, values)
}

// fetch reads the rows in scope, coerced to the descriptor's kinds.
func (s *Store) fetch(ctx context.Context, ts *tableStatements, where *sqlutil.Statement, values map[string]any) (*types.Table, error) {
	query := ts.selectAll
	var args []any
	if where != nil {
		var err error
		query, args, err = where.Bind(values)
		if err != nil {
			return nil, newError(KindModifyContents, ts.desc.Name(), err, "bind condition")
		}
	}
	rows, err := s.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ts.desc.Name(), err)
	}
	current, err := readRows(rows, ts.desc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ts.desc.Name(), err)
	}
	return current, nil
}

func (s *Store) insertRow(ctx context.Context, ts *tableStatements, row []any) error {
	return s.exec(ctx, ts, ts.insert, rowValues(row, nil))
}

func (s *Store) updateRow(ctx context.Context, ts *tableStatements, old, row []any) error {
	return s.exec(ctx, ts, ts.update, rowValues(row, old))
}

func (s *Store) deleteRow(ctx context.Context, ts *tableStatements, old []any) error {
	return s.exec(ctx, ts, ts.delete, rowValues(nil, old))
}

func (s *Store) exec(ctx context.Context, ts *tableStatements, stmt *sqlutil.Statement, values map[string]any) error {
	query, args, err := stmt.Bind(values)
	if err != nil {
		return newError(KindModifyContents, ts.desc.Name(), err, "invalid row")
	}
	if _, err := s.q().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to modify %s: %w", ts.desc.Name(), err)
	}
	return nil
}

// rowValues maps new values to "+N" keys and old values to "-N" keys.
func rowValues(row, old []any) map[string]any {
	values := make(map[string]any, len(row)+len(old))
	for i, v := range row {
		values[newKey(i)] = v
	}
	for i, v := range old {
		values[oldKey(i)] = v
	}
	return values
}

func newChange(typ ChangeType, table string, row, old []any) Change {
	values := orderedmap.NewOrderedMap[string, any]()
	for i, v := range row {
		values.Set(newKey(i), v)
	}
	for i, v := range old {
		values.Set(oldKey(i), v)
	}
	return Change{Type: typ, Table: table, Values: values}
}

// prepareRow normalizes a caller-supplied row. Integers given for float
// columns are widened so that they compare equal to stored values.
func prepareRow(desc *schema.Table, raw []any) []any {
	row := make([]any, len(raw))
	for i, v := range raw {
		v = types.Normalize(v)
		if n, ok := v.(int64); ok && desc.Columns[i].Kind == types.KindFloat {
			v = float64(n)
		}
		row[i] = v
	}
	return row
}

// rowKey is the lookup key of a row's primary key tuple.
func rowKey(row []any, pk []int) string {
	var b strings.Builder
	for _, idx := range pk {
		k, _ := types.KindOf(row[idx])
		text := types.Stringify(row[idx])
		fmt.Fprintf(&b, "%d:%d:%s", k, len(text), text)
	}
	return b.String()
}

// rowChanged compares two rows column by column.
func rowChanged(desc *schema.Table, old, row []any) (bool, error) {
	changed := false
	for i, col := range desc.Columns {
		eq, err := types.Equal(old[i], row[i])
		if err != nil {
			return false, newError(KindModifyContents, desc.Name(), err, "column %s", col.Name)
		}
		if !eq {
			changed = true
		}
	}
	return changed, nil
}
