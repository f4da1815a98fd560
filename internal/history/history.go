// Package history keeps a short in-memory trail of the numeric readings of
// each dashboard row, with low/peak/avg statistics for the sparklines.
package history

import (
	"math"
	"sort"
	"time"
)

// DefaultCapacity keeps the last 120 polls of each row.
const DefaultCapacity = 120

// Point is a single numeric reading.
type Point struct {
	Value float64
	Time  time.Time
}

// Buffer is a ring buffer of readings for one row.
type Buffer struct {
	Points []Point
	Max    int // capacity
	Min    float64
	Peak   float64
}

// NewBuffer creates a new history ring buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
}

// Push appends a reading, evicting the oldest one when full. Readings with
// the same timestamp as the newest point replace it.
func (b *Buffer) Push(v float64, t time.Time) {
	p := Point{Value: v, Time: t}
	switch {
	case len(b.Points) > 0 && b.Points[len(b.Points)-1].Time.Equal(t):
		b.Points[len(b.Points)-1] = p
	case len(b.Points) >= b.Max:
		copy(b.Points, b.Points[1:])
		b.Points[len(b.Points)-1] = p
	default:
		b.Points = append(b.Points, p)
	}

	if v < b.Min {
		b.Min = v
	}
	if v > b.Peak {
		b.Peak = v
	}
}

// Len returns the number of stored points.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Points)
}

// Last returns the most recent reading.
func (b *Buffer) Last() (float64, bool) {
	if b.Len() == 0 {
		return 0, false
	}
	return b.Points[len(b.Points)-1].Value, true
}

// Avg returns the average across all stored points.
func (b *Buffer) Avg() float64 {
	if b.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range b.Points {
		sum += p.Value
	}
	return sum / float64(len(b.Points))
}

// Stats summarises a buffer for display.
type Stats struct {
	Last, Min, Peak, Avg float64
	Count                int
}

// Stats returns the buffer summary, or false when it is empty.
func (b *Buffer) Stats() (Stats, bool) {
	last, ok := b.Last()
	if !ok {
		return Stats{}, false
	}
	return Stats{Last: last, Min: b.Min, Peak: b.Peak, Avg: b.Avg(), Count: len(b.Points)}, true
}

// LastNPoints returns the last n Points (with timestamps).
func (b *Buffer) LastNPoints(n int) []Point {
	if n <= 0 || b.Len() == 0 {
		return nil
	}
	start := max(len(b.Points)-n, 0)
	out := make([]Point, len(b.Points[start:]))
	copy(out, b.Points[start:])
	return out
}

// Store manages the buffers of all rows. It is not safe for concurrent use;
// the monitor only touches it from its update loop.
type Store struct {
	Data     map[string]*Buffer
	Capacity int
}

// NewStore creates a new store with the given per-row capacity.
func NewStore(capacity int) *Store {
	return &Store{
		Data:     make(map[string]*Buffer),
		Capacity: capacity,
	}
}

// Record adds a reading for the given row key.
func (s *Store) Record(key string, v float64, t time.Time) {
	b, ok := s.Data[key]
	if !ok {
		b = NewBuffer(s.Capacity)
		s.Data[key] = b
	}
	b.Push(v, t)
}

// Get returns the buffer for a row key, or nil.
func (s *Store) Get(key string) *Buffer {
	return s.Data[key]
}

// Keys returns the recorded row keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.Data))
	for k := range s.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Prune drops the buffers of rows that are no longer shown, e.g. after the
// configuration was reloaded. It returns the number of buffers removed.
func (s *Store) Prune(keep map[string]bool) int {
	n := 0
	for k := range s.Data {
		if !keep[k] {
			delete(s.Data, k)
			n++
		}
	}
	return n
}
