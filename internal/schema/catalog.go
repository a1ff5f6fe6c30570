package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/gocatalog/internal/graph"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
)

//go:embed catalog.yaml
var defaultSource []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog description, loading it on first
// use. It panics if the embedded description is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(defaultSource)
		if err != nil {
			panic(fmt.Sprintf("schema: embedded catalog description: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Catalog is the ordered, immutable set of catalog object descriptors.
type Catalog struct {
	Version int
	objects *orderedmap.OrderedMap[string, Object]
	passes  [][]string
	graph   *graph.Graph
}

func newCatalog(version int, passes [][]string, g *graph.Graph) *Catalog {
	return &Catalog{
		Version: version,
		objects: orderedmap.NewOrderedMap[string, Object](),
		passes:  passes,
		graph:   g,
	}
}

func (c *Catalog) add(obj Object) {
	c.objects.Set(obj.Name(), obj)
}

// complement builds the cascade condition of every foreign key and records
// cascading keys on the referenced table.
func (c *Catalog) complement() {
	for _, obj := range c.Objects() {
		t, ok := obj.(*Table)
		if !ok {
			continue
		}
		for _, fk := range t.ForeignKeys {
			conds := make([]string, len(fk.Columns))
			for i, idx := range fk.Columns {
				col := t.Columns[idx]
				conds[i] = fmt.Sprintf("%s = ##%s::%s", sqlutil.QuoteIdentifier(col.Name), col.Name, col.Kind)
				if col.Nullable {
					conds[i] += "::NULL"
				}
			}
			fk.Condition = strings.Join(conds, " AND ")

			if !fk.Cascade {
				continue
			}
			ref, _ := c.Table(fk.Referenced)
			ref.ReverseKeys = append(ref.ReverseKeys, fk)
		}
	}
}

// Objects returns every object in dependency order.
func (c *Catalog) Objects() []Object {
	out := make([]Object, 0, c.objects.Len())
	for el := c.objects.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Names returns every object name in dependency order.
func (c *Catalog) Names() []string {
	return c.objects.Keys()
}

// TableNames returns the table names in dependency order.
func (c *Catalog) TableNames() []string {
	var names []string
	for el := c.objects.Front(); el != nil; el = el.Next() {
		if el.Value.Kind() == KindTable {
			names = append(names, el.Key)
		}
	}
	return names
}

// Lookup returns the object called name.
func (c *Catalog) Lookup(name string) (Object, bool) {
	return c.objects.Get(name)
}

// Table returns the table called name; views are not returned.
func (c *Catalog) Table(name string) (*Table, bool) {
	obj, ok := c.objects.Get(name)
	if !ok {
		return nil, false
	}
	t, ok := obj.(*Table)
	return t, ok
}

// Dependents returns the tables whose rows are deleted in cascade when a
// row of the named table goes away, in reverse key order.
func (c *Catalog) Dependents(name string) []string {
	t, ok := c.Table(name)
	if !ok {
		return nil
	}
	var out []string
	for _, fk := range t.ReverseKeys {
		if !contains(out, fk.Owner) {
			out = append(out, fk.Owner)
		}
	}
	return out
}

// Passes returns object names grouped by creation pass: every object of a
// pass depends only on objects of earlier passes.
func (c *Catalog) Passes() [][]string {
	return c.passes
}

// Graph returns the dependency graph the order was computed from.
func (c *Catalog) Graph() *graph.Graph {
	return c.graph
}

// Len returns the number of objects.
func (c *Catalog) Len() int {
	return c.objects.Len()
}
