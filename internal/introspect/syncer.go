package introspect

import (
	"context"
	"fmt"
	"time"

	"github.com/dbsmedya/gocatalog/internal/logger"
	"github.com/dbsmedya/gocatalog/internal/store"
)

// TableSummary counts what one sync run did to one catalog table.
type TableSummary struct {
	Table    string
	Rows     int
	Added    int
	Modified int
	Removed  int
}

// Summary is the result of a sync run.
type Summary struct {
	Source      string
	Catalog     string
	Schema      string
	Tables      []*TableSummary
	Suggestions int
	Duration    time.Duration
}

// Changes returns the total number of row changes.
func (s *Summary) Changes() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Added + t.Modified + t.Removed
	}
	return n
}

func (s *Summary) table(name string) *TableSummary {
	for _, t := range s.Tables {
		if t.Table == name {
			return t
		}
	}
	t := &TableSummary{Table: name}
	s.Tables = append(s.Tables, t)
	return t
}

// Syncer refreshes the catalog rows of one source schema. Each catalog
// table is reconciled with its own Modify call, scoped to the source's
// catalog and schema, in catalog dependency order.
type Syncer struct {
	store  *store.Store
	reader *Reader
	source string
	only   map[string]bool
	logger *logger.Logger

	// set while Run is active
	summary *Summary
}

// NewSyncer creates a syncer. A non-empty tables list restricts the run
// to those catalog tables.
func NewSyncer(st *store.Store, reader *Reader, source string, tables []string, log *logger.Logger) (*Syncer, error) {
	if st == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Syncer{
		store:  st,
		reader: reader,
		source: source,
		logger: log.Named(logger.ComponentSync).WithSource(source),
	}
	if len(tables) > 0 {
		s.only = make(map[string]bool, len(tables))
		for _, t := range tables {
			if _, ok := reader.queries[t]; !ok {
				return nil, fmt.Errorf("table %s cannot be introspected", t)
			}
			s.only[t] = true
		}
	}

	st.OnChanges(s.recordChanges)
	st.OnSuggestUpdate(s.recordSuggestion)
	return s, nil
}

// Run introspects the source and reconciles every selected table. A
// failing table stops the run; tables already reconciled stay committed.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	s.summary = &Summary{Source: s.source, Schema: s.reader.Schema()}
	defer func() { s.summary = nil }()

	catalogName, catalogData, err := s.reader.ReadCatalogName(ctx)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", s.source, err)
	}
	s.summary.Catalog = catalogName
	s.logger.Infow("sync started", "catalog", catalogName, "schema", s.reader.Schema())

	for _, table := range s.reader.Tables() {
		if s.only != nil && !s.only[table] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data := catalogData
		if table != CatalogTable {
			if data, err = s.reader.Read(ctx, table); err != nil {
				return nil, err
			}
		}
		s.summary.table(table).Rows = data.Len()

		cond, values := s.reader.Scope(table, catalogName)
		if err := s.store.Modify(ctx, table, data, cond, values); err != nil {
			return nil, fmt.Errorf("failed to reconcile %s: %w", table, err)
		}
		s.logger.WithCatalogObject(table, catalogName, s.reader.Schema()).Debugw("table reconciled", "rows", data.Len())
	}

	summary := s.summary
	summary.Duration = time.Since(start)
	s.logger.Infow("sync complete",
		"tables", len(summary.Tables),
		"changes", summary.Changes(),
		"suggestions", summary.Suggestions,
		"duration", summary.Duration)
	return summary, nil
}

func (s *Syncer) recordChanges(batches []store.ChangeBatch) {
	if s.summary == nil {
		return
	}
	for _, batch := range batches {
		t := s.summary.table(batch.Table)
		for _, c := range batch.Changes {
			switch c.Type {
			case store.ChangeAdd:
				t.Added++
			case store.ChangeModify:
				t.Modified++
			case store.ChangeRemove:
				t.Removed++
			}
		}
		s.logger.WithBatch(batch.ID).WithTable(batch.Table).Debugw("changes committed", "changes", len(batch.Changes))
	}
}

func (s *Syncer) recordSuggestion(_ context.Context, sg store.Suggestion) error {
	if s.summary != nil {
		s.summary.Suggestions++
	}
	s.logger.WithTable(sg.Table).Debugw("update suggested", "keys", sg.Keys.Keys())
	return nil
}
