// Package sensor turns Home Assistant entity records and per-sensor display
// configuration into renderable rows.
//
// Every function here is pure: the driving loop passes in the snapshot and
// configuration for one render pass and gets fresh rows back.
package sensor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Separator joins the pieces of a composite value.
const Separator = " | "

// Value is a raw value split into its pieces. A plain state is a single
// piece; a composite built from several attributes has one piece per
// attribute that was found.
type Value []string

// String joins the pieces with Separator.
func (v Value) String() string {
	return strings.Join(v, Separator)
}

// First returns the leading piece, or "" for an empty value.
func (v Value) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Number parses the leading piece as a finite float.
func (v Value) Number() (float64, bool) {
	return parseNumber(v.First())
}

// Unavailable reports whether Home Assistant marked the value as unknown or
// unavailable.
func (v Value) Unavailable() bool {
	s := strings.ToLower(v.String())
	return s == "unknown" || s == "unavailable"
}

// parseNumber accepts plain decimal numbers only. Underscore separators and
// hex literals that strconv understands are text here.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "_") {
		return 0, false
	}
	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// Stringify renders an attribute value the way it should appear in a row.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			if item == nil {
				continue
			}
			parts[i] = Stringify(item)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
