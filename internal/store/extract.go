package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// stmtCache keeps the most recently used compiled statements. A size below
// one disables caching.
type stmtCache struct {
	size  int
	items *orderedmap.OrderedMap[string, *sqlutil.Statement]
}

func newStmtCache(size int) *stmtCache {
	return &stmtCache{size: size, items: orderedmap.NewOrderedMap[string, *sqlutil.Statement]()}
}

func (c *stmtCache) compile(text string) (*sqlutil.Statement, error) {
	if stmt, ok := c.items.Get(text); ok {
		// move to the back: the front is evicted first
		c.items.Delete(text)
		c.items.Set(text, stmt)
		return stmt, nil
	}
	stmt, err := sqlutil.Compile(text)
	if err != nil {
		return nil, err
	}
	if c.size < 1 {
		return stmt, nil
	}
	for c.items.Len() >= c.size {
		c.items.Delete(c.items.Front().Key)
	}
	c.items.Set(text, stmt)
	return stmt, nil
}

func (c *stmtCache) len() int {
	return c.items.Len()
}

var queryKeywords = map[string]bool{
	"SELECT": true,
	"WITH":   true,
	"VALUES": true,
}

// Extract runs a read-only query against the catalog and returns its
// result. The query must be a single statement and may use ##name
// placeholders bound from values. Extract runs in the active transaction
// when there is one.
func (s *Store) Extract(ctx context.Context, query string, values map[string]any) (*types.Table, error) {
	stmt, err := s.cache.compile(query)
	if err != nil {
		return nil, newError(KindExtractSQL, "", err, "compile query")
	}
	if kw := stmt.FirstKeyword(); !queryKeywords[kw] {
		return nil, newError(KindExtractSQL, "", nil, "%s statements cannot be extracted", kw)
	}

	if unused := stmt.Unused(values); len(unused) > 0 {
		s.log.Warnw("extraction values without placeholder", "names", unused)
	}
	if missing := stmt.Missing(values); len(missing) > 0 {
		s.log.Warnw("extraction placeholders without value", "names", missing)
	}

	text, args, err := stmt.Bind(values)
	if err != nil {
		var unbound *sqlutil.UnboundError
		if errors.As(err, &unbound) {
			return nil, newError(KindExtractSQL, "", err, "unresolved placeholders")
		}
		return nil, newError(KindExtractSQL, "", err, "bind query")
	}

	s.log.Debugw("extracting", "query", text, "args", len(args))
	rows, err := s.q().QueryContext(ctx, text, args...)
	if err != nil {
		return nil, newError(KindExtractSQL, "", err, "run query")
	}
	result, err := readRows(rows, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction result: %w", err)
	}
	return result, nil
}
