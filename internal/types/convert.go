package types

// ToInt64 converts an interface{} to int64.
// Supports int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, and float64.
func ToInt64(v interface{}) int64 {
	switch i := v.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return int64(i)
	case uint64:
		return int64(i)
	case uint32:
		return int64(i)
	case uint16:
		return int64(i)
	case uint8:
		return int64(i)
	case float64:
		return int64(i)
	case float32:
		return int64(i)
	default:
		return 0
	}
}

// Normalize widens Go scalar values to the canonical representation used
// throughout the catalog: every integer becomes int64, every float becomes
// float64. Values of other types are returned unchanged. Normalize never
// converts across kinds.
func Normalize(v any) any {
	switch x := v.(type) {
	case int, int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return ToInt64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// Coerce converts a value read back from the storage engine to the
// representation of kind k. Storage engines flatten booleans to integers
// and may return text as bytes; Coerce undoes that. Values that cannot be
// represented as k are returned normalized but otherwise untouched so that
// a later comparison reports the mismatch.
func Coerce(v any, k Kind) any {
	v = Normalize(v)
	if v == nil {
		return nil
	}
	switch k {
	case KindBool:
		if i, ok := v.(int64); ok {
			return i != 0
		}
	case KindString:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
	case KindFloat:
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	}
	return v
}
