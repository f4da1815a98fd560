package sensor

import (
	"strings"

	"github.com/luki/hasensors/internal/hass"
)

// stateAttribute is the reserved attribute name that selects the entity state.
const stateAttribute = "state"

// Extract builds the raw value for an entity. With no attributes requested
// it is the bare state; otherwise one piece per requested attribute that the
// entity has, in request order. Missing attributes contribute nothing, so the
// composite shortens instead of gaining an empty slot. A nil entity, or a
// requested state the record did not carry, reports ok == false.
func Extract(e *hass.Entity, attributes []string) (v Value, ok bool) {
	if e == nil {
		return nil, false
	}
	if len(attributes) == 0 {
		if e.StateMissing {
			return nil, false
		}
		return Value{strings.TrimSpace(e.State)}, true
	}

	v = make(Value, 0, len(attributes))
	for _, name := range attributes {
		if name == stateAttribute {
			if e.StateMissing {
				return nil, false
			}
			v = append(v, strings.TrimSpace(e.State))
			continue
		}
		if attr, found := e.Attribute(name); found {
			v = append(v, strings.TrimSpace(Stringify(attr)))
		}
	}
	return v, true
}
