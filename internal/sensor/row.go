package sensor

import (
	"github.com/luki/hasensors/internal/hass"
)

// FallbackLimit caps the rows built when no sensors are configured.
const FallbackLimit = 20

// Row is one renderable line of the dashboard.
type Row struct {
	Sensor  string // entity id
	Name    string
	Value   string // display value, after map and precision
	Unit    string
	Icon    string
	HasIcon bool
	Blink   bool
	Raw     Value // value before map and precision
}

// Key returns a unique identifier for this row.
func (r Row) Key() string {
	return r.Sensor
}

// BuildRow turns one sensor config into a row. ok is false when the row
// should be skipped: the config has no sensor, the entity is not in the
// snapshot, its state is null, or its value is unknown/unavailable.
func BuildRow(entities []hass.Entity, cfg Config, s DisplaySettings) (row Row, ok bool) {
	if cfg.Sensor == "" {
		return Row{}, false
	}

	entity, _ := hass.Find(entities, cfg.Sensor)
	raw, found := Extract(entity, cfg.Attributes)
	if !found {
		logger().Trace().Str("sensor", cfg.Sensor).Msg("entity not reported, skipping")
		return Row{}, false
	}
	if raw.Unavailable() {
		logger().Trace().Str("sensor", cfg.Sensor).Str("value", raw.String()).Msg("value unavailable, skipping")
		return Row{}, false
	}

	row = Row{
		Sensor: cfg.Sensor,
		Name:   FormatName(DisplayName(entity, cfg), s),
		Value:  ApplyPrecision(ApplyMap(raw, cfg.Map), cfg.Precision).String(),
		Unit:   unit(entity, s),
		Blink:  ShouldBlink(raw, cfg.AlertThreshold),
		Raw:    raw,
	}
	if override, set := cfg.unitOverride(); set {
		row.Unit = override
	}
	row.Icon, row.HasIcon = ResolveIcon(raw, cfg.Icons)
	return row, true
}

// BuildRows builds a row for every config that is not skipped, in config
// order. With no configs it falls back to FallbackRows.
func BuildRows(entities []hass.Entity, cfgs []Config, s DisplaySettings) []Row {
	if len(cfgs) == 0 {
		return FallbackRows(entities, s)
	}

	rows := make([]Row, 0, len(cfgs))
	for _, cfg := range cfgs {
		if row, ok := BuildRow(entities, cfg, s); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// FallbackRows lists the first FallbackLimit entities of the snapshot with
// their bare state. The cap is applied before null or unavailable states are
// dropped, so fewer rows than the limit may come back.
func FallbackRows(entities []hass.Entity, s DisplaySettings) []Row {
	if len(entities) > FallbackLimit {
		entities = entities[:FallbackLimit]
	}

	rows := make([]Row, 0, len(entities))
	for i := range entities {
		e := &entities[i]
		raw, ok := Extract(e, nil)
		if !ok || raw.Unavailable() {
			continue
		}
		name := friendlyName(e)
		if name == "" {
			name = e.ID
		}
		rows = append(rows, Row{
			Sensor: e.ID,
			Name:   FormatName(name, s),
			Value:  raw.String(),
			Unit:   unit(e, s),
			Raw:    raw,
		})
	}
	return rows
}

func unit(e *hass.Entity, s DisplaySettings) string {
	if !s.ShowUnit {
		return ""
	}
	v, ok := e.Attribute(unitAttribute)
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}
