package sensor

// ShouldBlink reports whether the leading piece of a raw value is a number
// strictly greater than the alert threshold.
func ShouldBlink(v Value, threshold Number) bool {
	if !threshold.Valid() {
		return false
	}
	n, ok := v.Number()
	if !ok {
		return false
	}
	return n > threshold.Value
}
