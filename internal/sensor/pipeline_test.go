package sensor

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/hasensors/internal/hass"
)

func strPtr(s string) *string { return &s }

func posInf() float64 { return math.Inf(1) }

func TestValueString(t *testing.T) {
	assert.Equal(t, "a | b", Value{"a", "b"}.String())
	assert.Equal(t, "", Value{}.First())
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"text", "text"},
		{json.Number("45"), "45"},
		{json.Number("3.050"), "3.050"},
		{45.0, "45"},
		{21.5, "21.5"},
		{7, "7"},
		{int64(-3), "-3"},
		{true, "true"},
		{nil, "null"},
		{[]any{"a", 1.0, nil}, "a,1,"},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in), "Stringify(%#v)", tt.in)
	}
}

func TestExtract(t *testing.T) {
	e := &hass.Entity{
		ID:    "sensor.battery",
		State: "45",
		Attributes: map[string]any{
			"battery_level": json.Number("45"),
			"voltage":       3.1,
		},
	}

	t.Run("nil entity", func(t *testing.T) {
		v, ok := Extract(nil, []string{"state"})
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("bare state", func(t *testing.T) {
		v, ok := Extract(e, nil)
		require.True(t, ok)
		assert.Equal(t, Value{"45"}, v)
	})

	t.Run("composite in request order", func(t *testing.T) {
		v, ok := Extract(e, []string{"voltage", "state", "battery_level"})
		require.True(t, ok)
		assert.Equal(t, "3.1 | 45 | 45", v.String())
	})

	t.Run("missing attributes are omitted", func(t *testing.T) {
		v, ok := Extract(e, []string{"state", "missing", "voltage"})
		require.True(t, ok)
		assert.Equal(t, Value{"45", "3.1"}, v)
	})

	t.Run("piece count matches found attributes", func(t *testing.T) {
		requests := [][]string{
			{"state"},
			{"missing"},
			{"state", "state"},
			{"battery_level", "missing", "voltage", "state"},
		}
		for _, attrs := range requests {
			want := 0
			for _, a := range attrs {
				if _, ok := e.Attribute(a); ok || a == "state" {
					want++
				}
			}
			v, ok := Extract(e, attrs)
			require.True(t, ok)
			assert.Len(t, v, want, "attributes %v", attrs)
		}
	})

	t.Run("all missing is an empty value", func(t *testing.T) {
		v, ok := Extract(e, []string{"missing"})
		require.True(t, ok)
		assert.Equal(t, "", v.String())
		assert.False(t, v.Unavailable())
	})
}

func TestApplyMap(t *testing.T) {
	m := Mapping{"on": "An", "off": "Aus", "open": "Offen"}

	assert.Equal(t, Value{"An"}, ApplyMap(Value{"ON"}, m))
	assert.Equal(t, "Offen | 45", ApplyMap(Value{"open", "45"}, m).String())
	assert.Equal(t, Value{"on"}, ApplyMap(Value{"on"}, nil))

	// No matching key leaves the value as it was.
	for _, v := range []Value{{"21.7"}, {"idle", "3"}, {"heating"}} {
		assert.Equal(t, v, ApplyMap(v, m))
	}
}

func TestApplyPrecision(t *testing.T) {
	tests := []struct {
		name      string
		in        Value
		precision Number
		want      string
	}{
		{"unset", Value{"21.74"}, Number{}, "21.74"},
		{"zero decimals", Value{"21.7"}, NewNumber(0), "22"},
		{"two decimals", Value{"3.14159"}, NewNumber(2), "3.14"},
		{"pads", Value{"5"}, NewNumber(2), "5.00"},
		{"half away from zero", Value{"2.5"}, NewNumber(0), "3"},
		{"negative half away from zero", Value{"-2.5"}, NewNumber(0), "-3"},
		{"no negative zero", Value{"-0.4"}, NewNumber(0), "0"},
		{"composite", Value{"21.66", "idle", "45"}, NewNumber(1), "21.7 | idle | 45.0"},
		{"non-numeric kept", Value{"heating"}, NewNumber(1), "heating"},
		{"partial numbers are text", Value{"21.7°C"}, NewNumber(0), "21.7°C"},
		{"digit separators are text", Value{"1_000"}, NewNumber(1), "1_000"},
		{"hex literals are text", Value{"0x1p4"}, NewNumber(1), "0x1p4"},
		{"signed hex literals are text", Value{"-0X10"}, NewNumber(0), "-0X10"},
		{"fractional precision truncates", Value{"1.234"}, NewNumber(1.9), "1.2"},
		{"negative precision ignored", Value{"1.234"}, NewNumber(-1), "1.234"},
		{"non-finite precision ignored", Value{"1.234"}, Number{Value: posInf(), Set: true}, "1.234"},
		{"NaN piece is text", Value{"NaN"}, NewNumber(1), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyPrecision(tt.in, tt.precision).String())
		})
	}
}

func TestResolveIcon(t *testing.T) {
	icons := &Icons{
		Default:     strPtr("thermometer"),
		StateOn:     strPtr("toggle-switch"),
		StateOff:    strPtr("toggle-switch-off"),
		StateOpen:   strPtr("door-open"),
		StateClosed: strPtr("door-closed"),
	}

	tests := []struct {
		value Value
		want  string
	}{
		{Value{"on"}, "toggle-switch"},
		{Value{"OFF"}, "toggle-switch-off"},
		{Value{"Open"}, "door-open"},
		{Value{"closed", "12"}, "door-closed"},
		{Value{"21.7"}, "thermometer"},
		{Value{"12", "on"}, "thermometer"},
	}
	for _, tt := range tests {
		icon, ok := ResolveIcon(tt.value, icons)
		assert.True(t, ok)
		assert.Equal(t, tt.want, icon, "value %q", tt.value.String())
	}

	_, ok := ResolveIcon(Value{"on"}, nil)
	assert.False(t, ok)

	_, ok = ResolveIcon(Value{"on"}, &Icons{StateOff: strPtr("x")})
	assert.False(t, ok, "state_on is not configured and there is no default")

	icon, ok := ResolveIcon(Value{"on"}, &Icons{Default: strPtr("power")})
	assert.True(t, ok)
	assert.Equal(t, "power", icon)
}

func TestShouldBlink(t *testing.T) {
	assert.False(t, ShouldBlink(Value{"90"}, Number{}))
	assert.False(t, ShouldBlink(Value{"90"}, Number{Value: posInf(), Set: true}))
	assert.False(t, ShouldBlink(Value{"on"}, NewNumber(50)))
	assert.False(t, ShouldBlink(Value{"50"}, NewNumber(50)))
	assert.False(t, ShouldBlink(Value{"1_000"}, NewNumber(50)), "digit separators are not numbers")
	assert.False(t, ShouldBlink(Value{"45", "99"}, NewNumber(50)))
	assert.True(t, ShouldBlink(Value{"50.01"}, NewNumber(50)))
	assert.True(t, ShouldBlink(Value{"99", "on"}, NewNumber(50)))
	assert.True(t, ShouldBlink(Value{"-1"}, NewNumber(-2)))
}

func TestFormatName(t *testing.T) {
	all := DisplaySettings{StripName: true, PrettyName: true}
	tests := []struct {
		name string
		s    DisplaySettings
		want string
	}{
		{"sensor.living_room_temperature", all, "Living Room Temperature"},
		{"sensor.livingRoom", all, "Living Room"},
		{"sensor.living_room", DisplaySettings{StripName: true}, "living_room"},
		{"sensor.living_room", DisplaySettings{PrettyName: true}, "Sensor.living Room"},
		{"Living Room", all, "Living Room"},
		{"Unknown", all, "Unknown"},
		{"sensor.temp", DisplaySettings{}, "sensor.temp"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatName(tt.name, tt.s), "FormatName(%q, %+v)", tt.name, tt.s)
	}
}

func TestDisplayName(t *testing.T) {
	e := &hass.Entity{ID: "sensor.x", Attributes: map[string]any{"friendly_name": "Kitchen"}}

	assert.Equal(t, "Mine", DisplayName(e, Config{Sensor: "sensor.x", Name: "Mine"}))
	assert.Equal(t, "Kitchen", DisplayName(e, Config{Sensor: "sensor.x"}))
	assert.Equal(t, "sensor.x", DisplayName(&hass.Entity{ID: "sensor.x"}, Config{Sensor: "sensor.x"}))
	assert.Equal(t, "Unknown", DisplayName(nil, Config{}))
}
