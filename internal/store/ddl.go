package store

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/gocatalog/internal/schema"
	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

// DDLRenderer renders the statement creating a catalog object in a given
// storage engine.
type DDLRenderer interface {
	RenderCreate(obj schema.Object) (string, error)
}

// SQLiteRenderer renders CREATE statements for SQLite.
type SQLiteRenderer struct{}

var sqliteTypes = map[types.Kind]string{
	types.KindString: "TEXT",
	types.KindInt:    "INTEGER",
	types.KindFloat:  "REAL",
	types.KindBool:   "BOOLEAN",
	types.KindBlob:   "BLOB",
}

func (SQLiteRenderer) RenderCreate(obj schema.Object) (string, error) {
	switch o := obj.(type) {
	case *schema.Table:
		var b strings.Builder
		b.WriteString("CREATE TABLE ")
		b.WriteString(sqlutil.QuoteIdentifier(o.Name()))
		b.WriteString(" (")
		for i, c := range o.Columns {
			typ, ok := sqliteTypes[c.Kind]
			if !ok {
				return "", fmt.Errorf("column %s.%s: no storage type for %s", o.Name(), c.Name, c.Kind)
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sqlutil.QuoteIdentifier(c.Name))
			b.WriteString(" ")
			b.WriteString(typ)
			if !c.Nullable {
				b.WriteString(" NOT NULL")
			}
		}
		pk := o.PrimaryKeyNames()
		for i, name := range pk {
			pk[i] = sqlutil.QuoteIdentifier(name)
		}
		b.WriteString(", PRIMARY KEY (")
		b.WriteString(strings.Join(pk, ", "))
		b.WriteString("))")
		return b.String(), nil
	case *schema.View:
		return "CREATE VIEW " + sqlutil.QuoteIdentifier(o.Name()) + " AS " + o.Definition, nil
	default:
		return "", fmt.Errorf("unsupported catalog object %T", obj)
	}
}
