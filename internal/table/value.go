package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateTimeFormat is the canonical textual form for datetime cells.
const DateTimeFormat = "2006-01-02 15:04:05"

var trueTokens = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
var falseTokens = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}

// IsNull reports whether a cell holds no value.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok {
		return math.IsNaN(f)
	}
	return false
}

// AsString renders a cell in its canonical textual form. Null cells render
// as the empty string.
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(DateTimeFormat)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// AsFloat coerces a cell to float64. Strings are parsed after trimming;
// booleans and datetimes do not coerce.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool coerces a cell to a boolean using the accepted truthy/falsy token
// sets (true/false, t/f, yes/no, y/n, 1/0, case-insensitive).
func AsBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
		return false, false
	case float64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
		return false, false
	case string:
		token := strings.ToLower(strings.TrimSpace(x))
		if trueTokens[token] {
			return true, true
		}
		if falseTokens[token] {
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// IsBoolToken reports whether a cell is a member of the boolean candidate
// set without committing to a value.
func IsBoolToken(v any) bool {
	_, ok := AsBool(v)
	return ok
}

// AsTime returns a cell's datetime value when it already holds one.
func AsTime(v any) (time.Time, bool) {
	ts, ok := v.(time.Time)
	return ts, ok
}
