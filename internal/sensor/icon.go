package sensor

import "strings"

// ResolveIcon picks the icon for the leading piece of a raw value. The
// on/off/open/closed states are checked in that order, each only when its
// icon is configured; otherwise the default icon is used if set.
func ResolveIcon(v Value, icons *Icons) (string, bool) {
	if icons == nil {
		return "", false
	}

	state := strings.ToLower(v.First())
	candidates := []struct {
		state string
		icon  *string
	}{
		{"on", icons.StateOn},
		{"off", icons.StateOff},
		{"open", icons.StateOpen},
		{"closed", icons.StateClosed},
	}
	for _, c := range candidates {
		if state == c.state && c.icon != nil {
			return *c.icon, true
		}
	}

	if icons.Default != nil {
		return *icons.Default, true
	}
	return "", false
}
