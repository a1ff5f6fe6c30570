// Package types contains the value model shared by the schema, store and
// introspection packages: value kinds, comparison and tabular snapshots.
package types

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the semantic type of a catalog value. It drives comparison and
// marshalling; the declared SQL type of a column is free-form and only
// maps onto a Kind.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var kindNames = map[string]Kind{
	"string":     KindString,
	"text":       KindString,
	"varchar":    KindString,
	"gchararray": KindString,
	"int":        KindInt,
	"integer":    KindInt,
	"gint":       KindInt,
	"gint64":     KindInt,
	"guint":      KindInt,
	"int64":      KindInt,
	"bigint":     KindInt,
	"float":      KindFloat,
	"double":     KindFloat,
	"gdouble":    KindFloat,
	"real":       KindFloat,
	"boolean":    KindBool,
	"bool":       KindBool,
	"gboolean":   KindBool,
	"blob":       KindBlob,
	"binary":     KindBlob,
	"gdabinary":  KindBlob,
}

// KindFromName maps a declared type tag (case-insensitive) onto a Kind.
func KindFromName(name string) (Kind, bool) {
	k, ok := kindNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// KindOf reports the Kind of a Go value. Values are normalized first, so
// int32(1) and int64(1) are both KindInt. Unsupported types return false.
func KindOf(v any) (Kind, bool) {
	switch Normalize(v).(type) {
	case nil:
		return KindNull, true
	case string:
		return KindString, true
	case int64:
		return KindInt, true
	case float64:
		return KindFloat, true
	case bool:
		return KindBool, true
	case []byte:
		return KindBlob, true
	default:
		return KindNull, false
	}
}

// MismatchError is returned by Equal when two non-null values have
// different kinds.
type MismatchError struct {
	Left  Kind
	Right Kind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot compare %s value with %s value", e.Left, e.Right)
}

// Equal compares two catalog values. Two nulls are equal; a null and a
// non-null are different; two non-null values of different kinds cannot
// be compared and yield a *MismatchError.
func Equal(a, b any) (bool, error) {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	ka, okA := KindOf(a)
	kb, okB := KindOf(b)
	if !okA || !okB {
		return false, fmt.Errorf("unsupported value types %T and %T", a, b)
	}
	if ka != kb {
		return false, &MismatchError{Left: ka, Right: kb}
	}
	if ka == KindBlob {
		return bytes.Equal(a.([]byte), b.([]byte)), nil
	}
	return a == b, nil
}

// Stringify renders a value for logs and change snapshots. Null renders as
// "NULL".
func Stringify(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case []byte:
		return fmt.Sprintf("x'%x'", x)
	default:
		return fmt.Sprint(x)
	}
}
