// Package verifier checks that the catalog rows of a source still describe
// the live database, without changing either side.
package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dbsmedya/gocatalog/internal/introspect"
	"github.com/dbsmedya/gocatalog/internal/logger"
	"github.com/dbsmedya/gocatalog/internal/schema"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// ErrMismatch is returned when at least one table differs.
var ErrMismatch = errors.New("catalog differs from source")

// Method defines how catalog and source rows are compared.
type Method string

const (
	// MethodCount compares row counts (fast)
	MethodCount Method = "count"
	// MethodSHA256 compares a SHA256 digest of every row
	MethodSHA256 Method = "sha256"
	// MethodSkip skips verification entirely
	MethodSkip Method = "skip"
)

// ParseMethod parses a method name. The empty name selects MethodCount.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(name)); m {
	case "":
		return MethodCount, nil
	case MethodCount, MethodSHA256, MethodSkip:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported verification method: %s", name)
	}
}

// Result holds the comparison of one catalog table.
type Result struct {
	Table        string
	Method       Method
	SourceCount  int64
	CatalogCount int64
	SourceHash   string
	CatalogHash  string
	Match        bool
	ErrorMessage string
}

// Stats summarizes a verification run.
type Stats struct {
	TablesVerified int
	TablesPassed   int
	TablesFailed   int
	TotalRows      int64
	Method         Method
	Results        []*Result
}

// Verifier compares the catalog rows of one source schema with a fresh
// introspection of it.
type Verifier struct {
	store  Extractor
	reader *introspect.Reader
	desc   *schema.Catalog
	method Method
	logger *logger.Logger
}

// Extractor runs read-only queries against the catalog. *store.Store
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, query string, values map[string]any) (*types.Table, error)
	Catalog() *schema.Catalog
}

// NewVerifier creates a verifier. An empty method selects MethodCount.
func NewVerifier(st Extractor, reader *introspect.Reader, method Method, log *logger.Logger) (*Verifier, error) {
	if st == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if reader == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	if log == nil {
		log = logger.NewNop()
	}
	m, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}

	return &Verifier{
		store:  st,
		reader: reader,
		desc:   st.Catalog(),
		method: m,
		logger: log.Named(logger.ComponentVerify),
	}, nil
}

// Method returns the configured verification method.
func (v *Verifier) Method() Method {
	return v.method
}

// Verify compares every selected table, in catalog order. An empty tables
// list selects every introspected table. Mismatching tables do not stop
// the run; the returned error then wraps ErrMismatch.
func (v *Verifier) Verify(ctx context.Context, tables []string) (*Stats, error) {
	if v.method == MethodSkip {
		v.logger.Info("Verification SKIPPED (method=skip)")
		return &Stats{Method: MethodSkip}, nil
	}

	selected, err := v.selectTables(tables)
	if err != nil {
		return nil, err
	}

	catalogName, catalogData, err := v.reader.ReadCatalogName(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Method: v.method}
	v.logger.Infof("Starting verification (method=%s) for %d tables", v.method, len(selected))

	for _, table := range selected {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("verification interrupted: %w", err)
		}

		source := catalogData
		if table != introspect.CatalogTable {
			if source, err = v.reader.Read(ctx, table); err != nil {
				return stats, err
			}
		}
		stored, err := v.catalogRows(ctx, table, catalogName)
		if err != nil {
			return stats, fmt.Errorf("verification failed for table %s: %w", table, err)
		}

		desc, _ := v.desc.Table(table)
		result := compare(v.method, desc, source, stored)

		stats.Results = append(stats.Results, result)
		stats.TablesVerified++
		stats.TotalRows += result.SourceCount
		if result.Match {
			stats.TablesPassed++
			v.logger.Debugf("Verification PASSED for table %q (%d rows)", table, result.SourceCount)
			continue
		}
		stats.TablesFailed++
		v.logger.Warnf("Verification FAILED for table %q: %s", table, result.ErrorMessage)
	}

	v.logger.Infof("Verification complete: %d tables verified, %d passed, %d failed, %d total rows",
		stats.TablesVerified, stats.TablesPassed, stats.TablesFailed, stats.TotalRows)

	if stats.TablesFailed > 0 {
		return stats, fmt.Errorf("%w: %d tables had mismatches", ErrMismatch, stats.TablesFailed)
	}
	return stats, nil
}

func (v *Verifier) selectTables(tables []string) ([]string, error) {
	if len(tables) == 0 {
		return v.reader.Tables(), nil
	}
	want := make(map[string]bool, len(tables))
	for _, t := range tables {
		want[t] = true
	}
	var out []string
	for _, t := range v.reader.Tables() {
		if want[t] {
			out = append(out, t)
			delete(want, t)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for t := range want {
			missing = append(missing, t)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("cannot verify %s: not introspected", strings.Join(missing, ", "))
	}
	return out, nil
}

// catalogRows reads the catalog rows of table that belong to the source.
func (v *Verifier) catalogRows(ctx context.Context, table, catalogName string) (*types.Table, error) {
	quoted, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return nil, err
	}
	cond, values := v.reader.Scope(table, catalogName)
	query := "SELECT * FROM " + quoted + " WHERE " + cond
	return v.store.Extract(ctx, query, values)
}

func compare(method Method, desc *schema.Table, source, stored *types.Table) *Result {
	r := &Result{
		Table:        desc.Name(),
		Method:       method,
		SourceCount:  int64(source.Len()),
		CatalogCount: int64(stored.Len()),
	}
	r.Match = r.SourceCount == r.CatalogCount
	if method == MethodSHA256 {
		r.SourceHash = tableHash(desc, source)
		r.CatalogHash = tableHash(desc, stored)
		r.Match = r.Match && r.SourceHash == r.CatalogHash
	}

	switch {
	case r.Match:
	case r.SourceCount != r.CatalogCount:
		r.ErrorMessage = fmt.Sprintf("count mismatch: source=%d, catalog=%d", r.SourceCount, r.CatalogCount)
	default:
		r.ErrorMessage = fmt.Sprintf("hash mismatch: source=%s, catalog=%s", r.SourceHash[:16], r.CatalogHash[:16])
	}
	return r
}

// tableHash digests the rows of t independently of their order. Values
// are coerced to the column kinds first, so booleans stored as integers
// hash like booleans.
func tableHash(desc *schema.Table, t *types.Table) string {
	lines := make([]string, 0, t.Len())
	for _, row := range t.Rows {
		lines = append(lines, serializeRow(desc, row))
	}
	sort.Strings(lines)

	hasher := sha256.New()
	for _, line := range lines {
		hasher.Write([]byte(line))
		hasher.Write([]byte("\n"))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// serializeRow renders a row as col1=val1\x00col2=val2...
func serializeRow(desc *schema.Table, row []any) string {
	parts := make([]string, len(row))
	for i, val := range row {
		col := desc.Columns[i]
		parts[i] = col.Name + "=" + types.Stringify(types.Coerce(val, col.Kind))
	}
	return strings.Join(parts, "\x00")
}
