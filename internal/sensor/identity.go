package sensor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/luki/hasensors/internal/hass"
)

const (
	friendlyNameAttribute = "friendly_name"
	unitAttribute         = "unit_of_measurement"

	unknownName = "Unknown"
)

var (
	capitalRe = regexp.MustCompile(`([A-Z])`)
	wordRe    = regexp.MustCompile(`\w\S*`)
)

// DisplayName resolves the name for a configured sensor: the explicit name,
// then the entity's friendly_name, then the sensor id, then "Unknown".
func DisplayName(e *hass.Entity, cfg Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	if name := friendlyName(e); name != "" {
		return name
	}
	if cfg.Sensor != "" {
		return cfg.Sensor
	}
	return unknownName
}

func friendlyName(e *hass.Entity) string {
	v, ok := e.Attribute(friendlyNameAttribute)
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// FormatName applies the global name settings. StripName keeps the text
// after the last "." (sensor.kitchen_temp -> kitchen_temp). PrettyName
// splits camelCase and snake_case into words and title-cases them
// (kitchen_temp -> Kitchen Temp, livingRoom -> Living Room).
func FormatName(name string, s DisplaySettings) string {
	out := name
	if s.StripName {
		if i := strings.LastIndex(out, "."); i >= 0 {
			out = out[i+1:]
		}
	}
	if s.PrettyName {
		out = capitalRe.ReplaceAllString(out, "_${1}")
		out = strings.ToLower(out)
		out = strings.ReplaceAll(out, "_", " ")
		out = wordRe.ReplaceAllStringFunc(out, upperFirst)
		out = strings.Join(strings.Fields(out), " ")
	}
	return out
}

func upperFirst(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}
