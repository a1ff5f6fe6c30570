// Package schema holds the descriptors of every catalog object: the tables
// mirroring a database's structure and the views defined over them. The
// descriptors are built once from a declarative YAML source and shared
// read-only by every store.
package schema

import (
	"github.com/dbsmedya/gocatalog/internal/types"
)

// ObjectKind distinguishes tables from views.
type ObjectKind int

const (
	KindTable ObjectKind = iota
	KindView
)

func (k ObjectKind) String() string {
	if k == KindView {
		return "view"
	}
	return "table"
}

// Object is a catalog table or view. The set of implementations is closed:
// *Table and *View.
type Object interface {
	Name() string
	Kind() ObjectKind
	// DependsOn lists the objects this one must be created after.
	DependsOn() []string
	isObject()
}

// Column describes one column of a catalog table.
type Column struct {
	Name         string
	DeclaredType string
	Kind         types.Kind
	PrimaryKey   bool
	Nullable     bool
}

// ForeignKey is a relation from columns of Owner to columns of Referenced.
// Columns and RefIndexes are positions in the owner's and referenced
// table's column lists; both have the same length.
type ForeignKey struct {
	Owner       string
	Referenced  string
	Columns     []int
	ColumnNames []string
	RefColumns  []string
	RefIndexes  []int
	// Cascade is false for relations kept for ordering only; they never
	// appear among the referenced table's reverse keys.
	Cascade bool
	// Condition selects the owner rows pointing at one referenced row:
	// "col" = ##col::kind[::NULL] for every owner column, joined with AND.
	Condition string
}

// Table is a catalog table descriptor.
type Table struct {
	name        string
	Columns     []Column
	ForeignKeys []*ForeignKey
	ReverseKeys []*ForeignKey
	pk          []int
	deps        []string
}

func (t *Table) Name() string { return t.name }
func (t *Table) Kind() ObjectKind { return KindTable }
func (t *Table) DependsOn() []string { return t.deps }
func (t *Table) isObject() {}

// PrimaryKey returns the positions of the primary key columns.
func (t *Table) PrimaryKey() []int {
	return t.pk
}

// PrimaryKeyNames returns the primary key column names.
func (t *Table) PrimaryKeyNames() []string {
	names := make([]string, len(t.pk))
	for i, idx := range t.pk {
		names[i] = t.Columns[idx].Name
	}
	return names
}

// ColumnNames returns every column name in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// View is a catalog view descriptor.
type View struct {
	name       string
	Definition string
	deps       []string
}

func (v *View) Name() string { return v.name }
func (v *View) Kind() ObjectKind { return KindView }
func (v *View) DependsOn() []string { return v.deps }
func (v *View) isObject() {}
