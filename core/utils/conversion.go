package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceInt converts loosely typed JSON scalars to an int.
// Floats are accepted only when they carry no fractional part, since a
// fractional card count is always a malformed payload. The second return
// value reports whether the conversion succeeded.
func CoerceInt(val any) (int, bool) {
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case uint:
		return int(v), true
	case uint64:
		return int(v), true
	case uint32:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case float32:
		return CoerceInt(float64(v))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return i, true
	case []byte:
		return CoerceInt(string(v))
	default:
		return 0, false
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
