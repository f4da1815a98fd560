package monitor

import "strings"

// glyphs maps icon name prefixes to terminal glyphs. Longer prefixes must
// come before shorter ones that they start with.
var glyphs = []struct {
	prefix string
	glyph  string
}{
	{"thermometer", "🌡"},
	{"water-percent", "💧"},
	{"water", "💧"},
	{"humidity", "💧"},
	{"lightbulb", "💡"},
	{"lamp", "💡"},
	{"door", "🚪"},
	{"window", "🪟"},
	{"battery", "🔋"},
	{"flash", "⚡"},
	{"lightning", "⚡"},
	{"power", "⏻"},
	{"radiator", "♨"},
	{"fire", "🔥"},
	{"fan", "❋"},
	{"weather-sunny", "☀"},
	{"weather", "☁"},
	{"motion", "🏃"},
	{"home", "⌂"},
	{"lock", "🔒"},
	{"bell", "🔔"},
	{"gauge", "◔"},
	{"toggle-switch-off", "○"},
	{"toggle-switch", "●"},
}

const fallbackGlyph = "•"

// Glyph returns a printable symbol for an icon name such as "mdi:door-open".
// Names without a known prefix get a bullet.
func Glyph(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "mdi:")
	if name == "" {
		return ""
	}
	for _, g := range glyphs {
		if strings.HasPrefix(name, g.prefix) {
			return g.glyph
		}
	}
	return fallbackGlyph
}
