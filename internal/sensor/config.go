package sensor

import (
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/luki/hasensors/internal/logging"
)

func logger() *zerolog.Logger {
	return logging.For("sensor")
}

// Config is the display configuration for one sensor.
type Config struct {
	Sensor     string   `yaml:"sensor"`
	Name       string   `yaml:"name,omitempty"`
	Attributes []string `yaml:"attributes,omitempty"`
	Precision  Number   `yaml:"precision,omitempty"`
	// Unit and UnitOverride both replace the entity's unit; UnitOverride
	// wins when both are set.
	Unit           *string `yaml:"unit,omitempty"`
	UnitOverride   *string `yaml:"unitOverride,omitempty"`
	Map            Mapping `yaml:"map,omitempty"`
	Icons          *Icons  `yaml:"icons,omitempty"`
	AlertThreshold Number  `yaml:"alertThreshold,omitempty"`
}

func (c Config) unitOverride() (string, bool) {
	if c.UnitOverride != nil {
		return *c.UnitOverride, true
	}
	if c.Unit != nil {
		return *c.Unit, true
	}
	return "", false
}

// Number is an optional numeric option. The zero value is unset.
type Number struct {
	Value float64
	Set   bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Set: true}
}

// Valid reports whether the number is set and finite.
func (n Number) Valid() bool {
	return n.Set && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}

// IsZero lets yaml omit unset numbers.
func (n Number) IsZero() bool {
	return !n.Set
}

// UnmarshalYAML accepts any scalar that parses as a finite number and
// leaves the option unset for everything else.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	*n = Number{}
	if node.Kind != yaml.ScalarNode {
		logger().Debug().Int("line", node.Line).Msg("ignoring non-scalar numeric option")
		return nil
	}
	v, ok := parseNumber(node.Value)
	if !ok {
		logger().Debug().Int("line", node.Line).Str("value", node.Value).Msg("ignoring non-numeric option")
		return nil
	}
	*n = NewNumber(v)
	return nil
}

// MarshalYAML writes the number back as a plain scalar.
func (n Number) MarshalYAML() (any, error) {
	if !n.Set {
		return nil, nil
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64), nil
}

// Mapping substitutes display text for raw pieces. Keys are matched against
// the lower-cased piece.
type Mapping map[string]string

// UnmarshalYAML keeps scalar entries and drops nested ones.
func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		logger().Debug().Int("line", node.Line).Msg("ignoring map option that is not a mapping")
		*m = nil
		return nil
	}
	out := make(Mapping, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			continue
		}
		out[key.Value] = val.Value
	}
	*m = out
	return nil
}

// Icons picks an icon name from the leading piece of the raw value. A nil
// field is an icon that was not configured.
type Icons struct {
	Default     *string `yaml:"default,omitempty"`
	StateOn     *string `yaml:"state_on,omitempty"`
	StateOff    *string `yaml:"state_off,omitempty"`
	StateOpen   *string `yaml:"state_open,omitempty"`
	StateClosed *string `yaml:"state_closed,omitempty"`
}

// UnmarshalYAML accepts a single icon set or a sequence of them, in which
// case only the first is used. Entries that are not strings are ignored.
func (i *Icons) UnmarshalYAML(node *yaml.Node) error {
	*i = Icons{}
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		logger().Debug().Int("line", node.Line).Msg("ignoring icons option that is not a mapping")
		return nil
	}
	for j := 0; j+1 < len(node.Content); j += 2 {
		key, val := node.Content[j], node.Content[j+1]
		if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" {
			continue
		}
		s := val.Value
		switch strings.TrimSpace(key.Value) {
		case "default":
			i.Default = &s
		case "state_on":
			i.StateOn = &s
		case "state_off":
			i.StateOff = &s
		case "state_open":
			i.StateOpen = &s
		case "state_closed":
			i.StateClosed = &s
		}
	}
	return nil
}

// DisplaySettings are the global options that apply to every row.
type DisplaySettings struct {
	StripName     bool
	PrettyName    bool
	ShowUnit      bool
	DisplaySymbol bool
}
