// Package hass reads entity state from the Home Assistant REST API and
// models the records it returns.
package hass

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
)

// Entity is a single record from /api/states.
type Entity struct {
	ID          string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed"` // "2023-12-27T15:28:26.287133+00:00"
	LastUpdated string         `json:"last_updated"`

	// StateMissing is set when the record carried "state": null or no state
	// key at all.
	StateMissing bool `json:"-"`
}

// UnmarshalJSON decodes an entity record, keeping attribute numbers as
// json.Number and noting a null or absent state.
func (e *Entity) UnmarshalJSON(data []byte) error {
	type record Entity
	aux := struct {
		*record
		State *string `json:"state"`
	}{record: (*record)(e)}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&aux); err != nil {
		return err
	}
	e.State = ""
	e.StateMissing = aux.State == nil
	if aux.State != nil {
		e.State = *aux.State
	}
	return nil
}

// Attribute returns the named attribute and whether it is present.
func (e *Entity) Attribute(name string) (any, bool) {
	if e == nil || e.Attributes == nil {
		return nil, false
	}
	v, ok := e.Attributes[name]
	return v, ok
}

// Snapshot is the full entity list from one successful poll. A nil
// *Snapshot means no poll has succeeded yet.
type Snapshot struct {
	Entities  []Entity
	FetchedAt time.Time
}

// NewSnapshot wraps a fetched entity list.
func NewSnapshot(entities []Entity, t time.Time) *Snapshot {
	return &Snapshot{Entities: entities, FetchedAt: t}
}

// Find looks up an entity by id. It is safe to call on a nil snapshot.
func (s *Snapshot) Find(id string) (*Entity, bool) {
	if s == nil {
		return nil, false
	}
	return Find(s.Entities, id)
}

// Len returns the number of entities, 0 for a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entities)
}

// Find returns the first entity with the given id. Snapshots hold tens to
// low hundreds of entities so a linear scan is enough.
func Find(entities []Entity, id string) (*Entity, bool) {
	for i := range entities {
		if entities[i].ID == id {
			return &entities[i], true
		}
	}
	return nil, false
}

// DecodeEntities parses a /api/states response body. Numbers inside
// attributes are kept as json.Number so they print exactly as sent.
func DecodeEntities(r io.Reader) ([]Entity, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var entities []Entity
	if err := dec.Decode(&entities); err != nil {
		return nil, eris.Wrap(err, "unable to parse entity list")
	}
	return entities, nil
}
