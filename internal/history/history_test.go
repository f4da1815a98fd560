package history

import (
	"testing"
	"time"
)

func TestHistory(t *testing.T) {
	h := NewBuffer(5)

	now := time.Now()
	for i := 0; i < 7; i++ {
		h.Push(float64(20+i), now.Add(time.Duration(i)*time.Second))
	}

	if len(h.Points) != 5 {
		t.Errorf("expected 5 points, got %d", len(h.Points))
	}

	if last, ok := h.Last(); !ok || last != 26.0 {
		t.Errorf("Last(): got %f, %v, want 26.0, true", last, ok)
	}

	if h.Min != 20.0 {
		t.Errorf("Min: got %f, want 20.0", h.Min)
	}

	if h.Peak != 26.0 {
		t.Errorf("Peak: got %f, want 26.0", h.Peak)
	}

	if avg := h.Avg(); avg != 24.0 {
		t.Errorf("Avg(): got %f, want 24.0", avg)
	}

	pts := h.LastNPoints(3)
	if len(pts) != 3 || pts[0].Value != 24 {
		t.Errorf("LastNPoints(3): got %+v, want 24..26", pts)
	}
	if pts := h.LastNPoints(50); len(pts) != 5 {
		t.Errorf("LastNPoints(50): got %d points, want 5", len(pts))
	}
}

func TestEmptyBuffer(t *testing.T) {
	var b *Buffer
	if _, ok := b.Last(); ok {
		t.Error("nil buffer should have no last value")
	}
	if _, ok := b.Stats(); ok {
		t.Error("nil buffer should have no stats")
	}
	if b.LastNPoints(3) != nil {
		t.Error("nil buffer should have no values")
	}

	if NewBuffer(0).Max != DefaultCapacity {
		t.Errorf("NewBuffer(0): got capacity %d, want %d", NewBuffer(0).Max, DefaultCapacity)
	}
}

func TestSameTimestampReplaces(t *testing.T) {
	h := NewBuffer(10)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.Push(1, at)
	h.Push(2, at)

	if h.Len() != 1 {
		t.Fatalf("got %d points, want 1", h.Len())
	}
	if last, _ := h.Last(); last != 2 {
		t.Errorf("Last(): got %f, want 2", last)
	}
}

func TestLastNPoints(t *testing.T) {
	h := NewBuffer(100)
	base := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	for i := 0; i < 120; i++ {
		h.Push(float64(i%10), base.Add(time.Duration(i)*time.Minute))
	}

	pts := h.LastNPoints(5)
	if len(pts) != 5 {
		t.Fatalf("LastNPoints(5): got %d, want 5", len(pts))
	}

	last := pts[len(pts)-1]
	if !last.Time.Equal(base.Add(119 * time.Minute)) {
		t.Errorf("last point time: got %v, want %v", last.Time, base.Add(119*time.Minute))
	}
}

func TestStorePrune(t *testing.T) {
	s := NewStore(10)
	now := time.Now()
	s.Record("sensor.a", 1, now)
	s.Record("sensor.b", 2, now)
	s.Record("sensor.c", 3, now)

	if got := s.Keys(); len(got) != 3 || got[0] != "sensor.a" {
		t.Fatalf("Keys(): got %v", got)
	}

	removed := s.Prune(map[string]bool{"sensor.b": true})
	if removed != 2 {
		t.Errorf("Prune: removed %d, want 2", removed)
	}
	if s.Get("sensor.a") != nil {
		t.Error("sensor.a should have been pruned")
	}
	st, ok := s.Get("sensor.b").Stats()
	if !ok || st.Last != 2 || st.Count != 1 {
		t.Errorf("Stats(): got %+v, %v", st, ok)
	}
}
