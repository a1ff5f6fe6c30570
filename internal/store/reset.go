package store

import (
	"context"
	"fmt"

	"github.com/dbsmedya/gocatalog/internal/types"
)

// resetState tracks the tables already emptied by the running data reset.
type resetState struct {
	cleared map[string]bool
}

// BeginDataReset starts a data reset: until FinishDataReset or
// CancelDataReset, every Modify call replaces the whole content of its
// table, ignoring conditions and producing neither change batches nor
// suggestions. The reset runs in a single transaction.
func (s *Store) BeginDataReset(ctx context.Context) error {
	if s.reset != nil {
		return newError(KindInternal, "", nil, "data reset already running")
	}
	if s.inTransaction() {
		return newError(KindInternal, "", nil, "cannot start a data reset inside a transaction")
	}
	if _, err := s.beginIfNone(ctx); err != nil {
		return err
	}
	s.reset = &resetState{cleared: make(map[string]bool)}
	s.log.Infow("data reset started")
	return nil
}

// FinishDataReset commits the data reset.
func (s *Store) FinishDataReset() error {
	if s.reset == nil {
		return newError(KindInternal, "", nil, "no data reset running")
	}
	tables := len(s.reset.cleared)
	s.reset = nil
	s.pending = nil
	if err := s.commit(); err != nil {
		return err
	}
	s.log.Infow("data reset committed", "tables", tables)
	return nil
}

// CancelDataReset rolls the data reset back.
func (s *Store) CancelDataReset() error {
	if s.reset == nil {
		return newError(KindInternal, "", nil, "no data reset running")
	}
	s.reset = nil
	s.pending = nil
	return s.rollback()
}

func (s *Store) resetModify(ctx context.Context, ts *tableStatements, data *types.Table) error {
	name := ts.desc.Name()
	if name == attributesTable {
		return newError(KindInternal, name, nil, "attributes cannot be replaced by a data reset")
	}
	if !s.reset.cleared[name] {
		if _, err := s.q().ExecContext(ctx, ts.deleteAll); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
		s.reset.cleared[name] = true
	}
	if data == nil {
		return nil
	}
	for _, raw := range data.Rows {
		if err := s.insertRow(ctx, ts, prepareRow(ts.desc, raw)); err != nil {
			return err
		}
	}
	s.log.WithTable(name).Debugw("table replaced", "rows", data.Len())
	return nil
}
