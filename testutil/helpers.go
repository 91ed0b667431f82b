// Package testutil holds comparison helpers shared by the decode tests.
package testutil

import (
	"math"

	"github.com/google/go-cmp/cmp"
)

// ConvertToInt64 converts various numeric types to int64 for comparison.
// Returns the int64 value and a boolean indicating success.
func ConvertToInt64(i any) (int64, bool) {
	switch v := i.(type) {
	case float64:
		if v == float64(int64(v)) { // Check if it's a whole number
			return int64(v), true
		}
		return 0, false
	case float32:
		if v == float32(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
		return 0, false
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// NumericComparer is a cmp.Comparer that treats decoded int64 values and
// the float64 values JSON round-trips turn them into as equal, and compares
// non-whole floats within a small epsilon.
// The always-true FilterValues wrapper is required because go-cmp rejects
// unfiltered Comparer options on interface types.
var NumericComparer = cmp.FilterValues(func(x, y any) bool { return true }, cmp.Comparer(func(x, y any) bool {
	xInt, xOk := ConvertToInt64(x)
	yInt, yOk := ConvertToInt64(y)
	if xOk && yOk {
		return xInt == yInt
	}
	if xFloat, xIsFloat := x.(float64); xIsFloat {
		if yFloat, yIsFloat := y.(float64); yIsFloat {
			return math.Abs(xFloat-yFloat) < 1e-9
		}
	}
	return cmp.Equal(x, y) // Fallback
}))
