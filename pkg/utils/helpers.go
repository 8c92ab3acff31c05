package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseValue converts a CSV cell to int, float64 or the trimmed string.
// Thousands separators are accepted in numbers ("1,234").
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	n := strings.ReplaceAll(s, ",", "")

	if i, err := strconv.Atoi(n); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(n, 64); err == nil {
		return f
	}
	return s
}

// Count converts a decoded value to a whole count. Floats are accepted when
// they carry no fraction; strings go through ParseValue.
func Count(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return int(val), true
		}
	case float32:
		return Count(float64(val))
	case string:
		if p := ParseValue(val); p != val {
			return Count(p)
		}
	}
	return 0, false
}

// CleanHeader trims whitespace, a leading BOM and every quote from a header.
func CleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	return strings.ReplaceAll(h, `"`, "")
}
