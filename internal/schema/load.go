package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/gocatalog/internal/graph"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

type document struct {
	Version int          `yaml:"version"`
	Objects []objectSpec `yaml:"objects"`
}

type objectSpec struct {
	Table       string       `yaml:"table"`
	View        string       `yaml:"view"`
	Columns     []columnSpec `yaml:"columns"`
	ForeignKeys []fkSpec     `yaml:"foreign_keys"`
	Definition  string       `yaml:"definition"`
}

type columnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"pkey"`
	Nullable   bool   `yaml:"nullok"`
}

type fkSpec struct {
	References string   `yaml:"references"`
	Columns    []string `yaml:"columns"`
	RefColumns []string `yaml:"ref_columns"`
	Cascade    *bool    `yaml:"cascade"`
}

// Load builds a catalog from its YAML description: it parses every object,
// orders them by dependency and resolves foreign keys into reverse keys.
func Load(source []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, &DescriptorError{Message: "failed to parse catalog description", Err: err}
	}
	if doc.Version <= 0 {
		return nil, descriptorErr("", "version must be a positive integer, got %d", doc.Version)
	}
	if len(doc.Objects) == 0 {
		return nil, descriptorErr("", "no objects defined")
	}

	objects := make(map[string]Object, len(doc.Objects))
	g := graph.NewGraph()
	fkSpecs := make(map[string][]fkSpec)

	for i, spec := range doc.Objects {
		obj, err := buildObject(i, spec)
		if err != nil {
			return nil, err
		}
		if _, dup := objects[obj.Name()]; dup {
			return nil, descriptorErr(obj.Name(), "defined more than once")
		}
		objects[obj.Name()] = obj
		g.AddNode(obj.Name(), obj.Kind().String())
		if t, ok := obj.(*Table); ok {
			fkSpecs[t.name] = spec.ForeignKeys
		}
	}

	// Foreign keys and view sources can only be resolved once every object
	// is known.
	for _, name := range g.Names() {
		switch obj := objects[name].(type) {
		case *Table:
			if err := resolveForeignKeys(obj, fkSpecs[name], objects); err != nil {
				return nil, err
			}
		case *View:
			for _, dep := range obj.deps {
				if _, ok := objects[dep]; !ok {
					return nil, descriptorErr(obj.name, "references unknown object %q", dep)
				}
			}
		}
		for _, dep := range objects[name].DependsOn() {
			g.AddEdge(dep, name)
		}
	}

	passes, err := g.Passes()
	if err != nil {
		return nil, &DescriptorError{Message: "objects cannot be ordered", Err: err}
	}

	c := newCatalog(doc.Version, passes, g)
	for _, pass := range passes {
		for _, name := range pass {
			c.add(objects[name])
		}
	}
	c.complement()
	return c, nil
}

func buildObject(pos int, spec objectSpec) (Object, error) {
	switch {
	case spec.Table != "" && spec.View != "":
		return nil, descriptorErr(spec.Table, "object cannot be both a table and a view")
	case spec.Table != "":
		return buildTable(spec)
	case spec.View != "":
		return buildView(spec)
	default:
		return nil, descriptorErr("", "object #%d has no name", pos+1)
	}
}

func buildTable(spec objectSpec) (*Table, error) {
	name := spec.Table
	if !sqlutil.IsValidIdentifier(name) {
		return nil, &DescriptorError{Object: name, Message: "invalid table name", Err: &sqlutil.InvalidIdentifierError{Name: name}}
	}
	if spec.Definition != "" {
		return nil, descriptorErr(name, "a table cannot have a definition")
	}
	if len(spec.Columns) == 0 {
		return nil, descriptorErr(name, "no columns defined")
	}

	t := &Table{name: name}
	seen := make(map[string]bool, len(spec.Columns))
	for i, cs := range spec.Columns {
		if !sqlutil.IsValidIdentifier(cs.Name) {
			return nil, &DescriptorError{Object: name, Message: fmt.Sprintf("column #%d has an invalid name", i+1), Err: &sqlutil.InvalidIdentifierError{Name: cs.Name}}
		}
		if seen[cs.Name] {
			return nil, descriptorErr(name, "column %q defined more than once", cs.Name)
		}
		seen[cs.Name] = true

		kind, ok := types.KindFromName(cs.Type)
		if !ok {
			return nil, descriptorErr(name, "column %q has unknown type %q", cs.Name, cs.Type)
		}
		if cs.PrimaryKey && cs.Nullable {
			return nil, descriptorErr(name, "primary key column %q cannot be nullable", cs.Name)
		}
		t.Columns = append(t.Columns, Column{
			Name:         cs.Name,
			DeclaredType: cs.Type,
			Kind:         kind,
			PrimaryKey:   cs.PrimaryKey,
			Nullable:     cs.Nullable,
		})
		if cs.PrimaryKey {
			t.pk = append(t.pk, i)
		}
	}
	if len(t.pk) == 0 {
		return nil, descriptorErr(name, "no primary key column")
	}
	return t, nil
}

func buildView(spec objectSpec) (*View, error) {
	name := spec.View
	if !sqlutil.IsValidIdentifier(name) {
		return nil, &DescriptorError{Object: name, Message: "invalid view name", Err: &sqlutil.InvalidIdentifierError{Name: name}}
	}
	if len(spec.Columns) > 0 || len(spec.ForeignKeys) > 0 {
		return nil, descriptorErr(name, "a view cannot declare columns or foreign keys")
	}
	def := strings.TrimSpace(spec.Definition)
	if def == "" {
		return nil, descriptorErr(name, "no definition")
	}
	deps, err := sqlutil.SourceTables(def)
	if err != nil {
		return nil, &DescriptorError{Object: name, Message: "invalid definition", Err: err}
	}
	for _, d := range deps {
		if d == name {
			return nil, descriptorErr(name, "definition reads from itself")
		}
	}
	return &View{name: name, Definition: def, deps: deps}, nil
}

func resolveForeignKeys(t *Table, specs []fkSpec, objects map[string]Object) error {
	for i, fs := range specs {
		target, ok := objects[fs.References]
		if !ok {
			return descriptorErr(t.name, "foreign key #%d references unknown table %q", i+1, fs.References)
		}
		ref, ok := target.(*Table)
		if !ok {
			return descriptorErr(t.name, "foreign key #%d references view %q", i+1, fs.References)
		}
		if len(fs.Columns) == 0 || len(fs.Columns) != len(fs.RefColumns) {
			return descriptorErr(t.name, "foreign key #%d to %q has %d columns but %d referenced columns",
				i+1, ref.name, len(fs.Columns), len(fs.RefColumns))
		}

		fk := &ForeignKey{
			Owner:      t.name,
			Referenced: ref.name,
			Cascade:    fs.Cascade == nil || *fs.Cascade,
		}
		for j, col := range fs.Columns {
			idx := t.ColumnIndex(col)
			if idx < 0 {
				return descriptorErr(t.name, "foreign key #%d uses unknown column %q", i+1, col)
			}
			refIdx := ref.ColumnIndex(fs.RefColumns[j])
			if refIdx < 0 {
				return descriptorErr(t.name, "foreign key #%d references unknown column %q of %q", i+1, fs.RefColumns[j], ref.name)
			}
			if t.Columns[idx].Kind != ref.Columns[refIdx].Kind {
				return descriptorErr(t.name, "foreign key column %q is %s but %s.%s is %s",
					col, t.Columns[idx].Kind, ref.name, fs.RefColumns[j], ref.Columns[refIdx].Kind)
			}
			fk.Columns = append(fk.Columns, idx)
			fk.ColumnNames = append(fk.ColumnNames, col)
			fk.RefColumns = append(fk.RefColumns, fs.RefColumns[j])
			fk.RefIndexes = append(fk.RefIndexes, refIdx)
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
		if ref.name != t.name && !contains(t.deps, ref.name) {
			t.deps = append(t.deps, ref.name)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
