package inventory

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPrefix matches the leading number of a cell such as "30 hari".
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Number reads a cell as a float. Text cells contribute their leading
// number ("30 hari" is 30). Empty, non-numeric and non-finite values are 0.
func Number(v any) float64 {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		prefix := numericPrefix.FindString(strings.TrimSpace(x))
		if prefix == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Text renders a cell as a trimmed string; ok is false for empty cells.
func Text(v any) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = strings.TrimSpace(x)
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", false
	}
	return s, s != ""
}

// Coerce converts a decoded cell string into a typed value: nil when
// blank, float64 when it parses as a number, otherwise the trimmed string.
func Coerce(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// CoerceText is Coerce for cells the workbook stores as text: codes such
// as "01" keep their leading zeros.
func CoerceText(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return s
}
