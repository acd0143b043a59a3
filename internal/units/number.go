package units

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number coerces v to a float64. Nil values, nil pointers and anything that
// does not parse as a number yield NaN.
func Number(v any) float64 {
	switch n := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case *float64:
		if n == nil {
			return math.NaN()
		}
		return *n
	case *int:
		if n == nil {
			return math.NaN()
		}
		return float64(*n)
	case *string:
		if n == nil {
			return math.NaN()
		}
		return ParseNumber(*n)
	case string:
		return ParseNumber(n)
	case []byte:
		return ParseNumber(string(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case fmt.Stringer:
		return ParseNumber(n.String())
	default:
		return math.NaN()
	}
}

// ParseNumber parses s as a decimal number, returning NaN on failure.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// IsMissing reports whether f cannot be used as a measurement.
func IsMissing(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func falsy(f float64) bool {
	return f == 0 || IsMissing(f)
}

func fixed(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

func roundTo(f float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(f*p) / p
}

// trimmed renders f with at most two decimals and no trailing zeros.
func trimmed(f float64) string {
	s := strconv.FormatFloat(math.Round(f*100)/100, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
