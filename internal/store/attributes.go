package store

import (
	"context"
	"strings"

	"github.com/dbsmedya/gocatalog/internal/sqlutil"
	"github.com/dbsmedya/gocatalog/internal/types"
)

const attributesTable = "_attributes"

// unreservedAttributes selects the attributes callers may modify; names
// starting with an underscore belong to the store.
const unreservedAttributes = `substr("att_name", 1, 1) <> '_'`

var attributeQuery = sqlutil.MustCompile(`SELECT "att_value" FROM "_attributes" WHERE "att_name" = ##name::string`)

// Attribute returns the value of a catalog attribute. A NULL value is
// returned as found with an empty string.
func (s *Store) Attribute(ctx context.Context, name string) (string, bool, error) {
	return s.attribute(ctx, name)
}

func (s *Store) attribute(ctx context.Context, name string) (string, bool, error) {
	query, args, err := attributeQuery.Bind(map[string]any{"name": name})
	if err != nil {
		return "", false, err
	}
	rows, err := s.q().QueryContext(ctx, query, args...)
	if err != nil {
		return "", false, err
	}
	res, err := readRows(rows, nil)
	if err != nil {
		return "", false, err
	}
	if res.Len() == 0 {
		return "", false, nil
	}
	v := types.Coerce(res.Rows[0][0], types.KindString)
	if v == nil {
		return "", true, nil
	}
	return types.Stringify(v), true, nil
}

// attributeScope keeps a Modify of the attributes table away from reserved
// attributes: the condition is narrowed to unreserved names and data rows
// naming a reserved attribute are refused.
func attributeScope(data *types.Table, condition string) (string, error) {
	if data != nil {
		for _, row := range data.Rows {
			if name, ok := row[0].(string); ok && !isUnreserved(name) {
				return "", newError(KindModifyContents, attributesTable, nil, "attribute name %q is reserved", name)
			}
		}
	}
	if strings.TrimSpace(condition) == "" {
		return unreservedAttributes, nil
	}
	return "(" + condition + ") AND " + unreservedAttributes, nil
}

func isUnreserved(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_")
}

// SetAttribute stores a catalog attribute; a nil value deletes it. Names
// starting with an underscore are reserved.
func (s *Store) SetAttribute(ctx context.Context, name string, value *string) error {
	if !isUnreserved(name) {
		return newError(KindModifyContents, attributesTable, nil, "attribute name %q is reserved", name)
	}
	var data *types.Table
	if value != nil {
		data = types.NewTable("att_name", "att_value")
		if err := data.Append(name, *value); err != nil {
			return err
		}
	}
	return s.Modify(ctx, attributesTable, data, `"att_name" = ##name::string`, map[string]any{"name": name})
}
