package plot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// toFloat reads v as a finite number. Numeric strings count.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// labelString renders v as a trimmed category label
func labelString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// isTimestamp reports whether v looks like a date-time: a time.Time or a
// string with a 'T' date/time separator directly after a digit.
func isTimestamp(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return true
	case *time.Time:
		return t != nil
	case string:
		for i := 1; i < len(t); i++ {
			if t[i] == 'T' && t[i-1] >= '0' && t[i-1] <= '9' {
				return true
			}
		}
	}
	return false
}

// timestampsToText replaces time.Time values with RFC 3339 strings
func timestampsToText(xs []any) []any {
	out := make([]any, len(xs))
	for i, v := range xs {
		switch t := v.(type) {
		case time.Time:
			out[i] = t.Format(time.RFC3339)
		case *time.Time:
			if t != nil {
				out[i] = t.Format(time.RFC3339)
			}
		default:
			out[i] = v
		}
	}
	return out
}

func nonNil(xs []any) []any {
	if xs == nil {
		return []any{}
	}
	return xs
}
