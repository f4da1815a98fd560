package sensor

import (
	"math"
	"strconv"
	"strings"
)

// maxPrecision is the largest number of decimals ApplyPrecision honours.
const maxPrecision = 100

// ApplyMap replaces each piece whose lower-cased form is a key of m with the
// mapped text. Pieces without a match are kept, trimmed. A nil map returns v
// unchanged.
func ApplyMap(v Value, m Mapping) Value {
	if m == nil {
		return v
	}
	out := make(Value, len(v))
	for i, piece := range v {
		piece = strings.TrimSpace(piece)
		if mapped, ok := m[strings.ToLower(piece)]; ok {
			out[i] = mapped
			continue
		}
		out[i] = piece
	}
	return out
}

// ApplyPrecision formats every numeric piece with the given number of
// decimals, rounding half away from zero (2.5 -> 3, -2.5 -> -3). Pieces
// that are not numbers are kept, trimmed. An unset precision, or one outside
// 0..100, returns v unchanged; a fractional precision is truncated.
func ApplyPrecision(v Value, precision Number) Value {
	if !precision.Valid() {
		return v
	}
	p := int(precision.Value)
	if p < 0 || p > maxPrecision {
		return v
	}

	out := make(Value, len(v))
	for i, piece := range v {
		piece = strings.TrimSpace(piece)
		if n, ok := parseNumber(piece); ok {
			out[i] = formatFixed(n, p)
			continue
		}
		out[i] = piece
	}
	return out
}

func formatFixed(n float64, decimals int) string {
	pow := math.Pow10(decimals)
	scaled := n * pow
	if math.IsInf(scaled, 0) {
		return strconv.FormatFloat(n, 'f', decimals, 64)
	}
	r := math.Round(scaled) / pow
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', decimals, 64)
}
