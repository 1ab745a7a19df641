package codec

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// CoerceToUint64 converts any Go numeric type, bool, or integer string to
// uint64. Floats are truncated toward zero. Negative values fail.
func CoerceToUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case int8:
		if v >= 0 {
			return uint64(v), true
		}
	case int16:
		if v >= 0 {
			return uint64(v), true
		}
	case int32:
		if v >= 0 {
			return uint64(v), true
		}
	case int:
		if v >= 0 {
			return uint64(v), true
		}
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	case float64:
		t := math.Trunc(v)
		if t >= 0 && t < math.MaxUint64 {
			return uint64(t), true
		}
	case float32:
		// Use float64 for range check to avoid precision loss
		t := math.Trunc(float64(v))
		if t >= 0 && t < math.MaxUint64 {
			return uint64(t), true
		}
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64)
		if err == nil {
			return u, true
		}
	}
	return 0, false
}

// CoerceToInt64 converts any Go numeric type, bool, or integer string to
// int64. Floats are truncated toward zero.
func CoerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		t := math.Trunc(v)
		if t >= math.MinInt64 && t < math.MaxInt64 {
			return int64(t), true
		}
	case float32:
		t := math.Trunc(float64(v))
		if t >= math.MinInt64 && t < math.MaxInt64 {
			return int64(t), true
		}
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

// CoerceToFloat64 converts any Go numeric type or numeric string to float64.
func CoerceToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f, true
		}
		return 0, false
	}
	if i, ok := CoerceToInt64(value); ok {
		if _, isBool := value.(bool); !isBool {
			return float64(i), true
		}
	}
	if u, ok := value.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}
