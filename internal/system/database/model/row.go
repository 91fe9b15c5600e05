package model

import (
	"strconv"
)

// String returns the column value as a string, or "" when NULL.
func (r Row) String(column string) string {
	switch v := r[column].(type) {
	case string:
		return v
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// NullableString returns nil for NULL columns.
func (r Row) NullableString(column string) *string {
	if r[column] == nil {
		return nil
	}
	s := r.String(column)
	return &s
}

// Int64 returns the column value as an int64, or 0 when NULL or unparsable.
func (r Row) Int64(column string) int64 {
	switch v := r[column].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// Bool reads boolean columns stored as BOOLEAN or TINYINT.
func (r Row) Bool(column string) bool {
	switch v := r[column].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return false
	}
}
