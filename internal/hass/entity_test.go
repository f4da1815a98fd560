package hass

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	entities := []Entity{
		{ID: "sensor.a", State: "1"},
		{ID: "sensor.b", State: "2"},
	}

	e, ok := Find(entities, "sensor.b")
	require.True(t, ok)
	assert.Equal(t, "2", e.State)

	_, ok = Find(entities, "sensor.missing")
	assert.False(t, ok)

	_, ok = Find(nil, "sensor.a")
	assert.False(t, ok)
}

func TestSnapshotNilIsAbsent(t *testing.T) {
	var s *Snapshot
	_, ok := s.Find("sensor.a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	s = NewSnapshot([]Entity{{ID: "sensor.a"}}, time.Now())
	_, ok = s.Find("sensor.a")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestAttribute(t *testing.T) {
	e := &Entity{Attributes: map[string]any{"friendly_name": "Door"}}
	v, ok := e.Attribute("friendly_name")
	assert.True(t, ok)
	assert.Equal(t, "Door", v)

	_, ok = e.Attribute("icon")
	assert.False(t, ok)

	_, ok = (&Entity{}).Attribute("icon")
	assert.False(t, ok)
}

func TestDecodeEntitiesWithoutAttributes(t *testing.T) {
	entities, err := DecodeEntities(strings.NewReader(`[{"entity_id":"sensor.door","state":"open"}]`))
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "open", entities[0].State)
	assert.Nil(t, entities[0].Attributes)
}

func TestDecodeEntitiesNullState(t *testing.T) {
	entities, err := DecodeEntities(strings.NewReader(
		`[{"entity_id":"sensor.x","state":null},{"entity_id":"sensor.y"},{"entity_id":"sensor.z","state":"","attributes":{"level":3}}]`))
	require.NoError(t, err)
	require.Len(t, entities, 3)

	assert.True(t, entities[0].StateMissing)
	assert.True(t, entities[1].StateMissing)
	assert.False(t, entities[2].StateMissing, "an empty string is still a state")
	assert.Equal(t, json.Number("3"), entities[2].Attributes["level"])
}
