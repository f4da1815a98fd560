package viewer

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/hasensors/internal/history"
	"github.com/luki/hasensors/internal/sensor"
	"github.com/luki/hasensors/internal/store"
)

func record(t *testing.T, dir string, base time.Time) {
	t.Helper()
	ds, err := store.New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ds.Close()

	for i := 0; i < 6; i++ {
		temp := 20 + float64(i)
		rows := []sensor.Row{
			{Sensor: "sensor.temp", Name: "Temp", Raw: sensor.Value{sensor.Stringify(temp)}, Value: sensor.Stringify(temp), Unit: "°C", Blink: temp > 24},
			{Sensor: "binary_sensor.door", Name: "Door", Raw: sensor.Value{"open"}, Value: "Offen"},
		}
		if err := ds.Write(rows, base.Add(time.Duration(i)*5*time.Minute)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
}

func press(m model, key string) model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	return next.(model)
}

func TestLoadDay(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 4, 2, 9, 40, 0, 0, time.Local)
	record(t, dir, base)

	days, err := store.ListDays(dir)
	if err != nil || len(days) != 1 {
		t.Fatalf("ListDays: got %v, %v", days, err)
	}

	m := newModel(dir, days)
	if m.err != nil {
		t.Fatalf("loadDay: %v", m.err)
	}
	if len(m.timeSlots) != 6 {
		t.Errorf("time slots: got %d, want 6", len(m.timeSlots))
	}
	if got := strings.Join(m.sensors, ","); got != "binary_sensor.door,sensor.temp" {
		t.Errorf("sensors: got %s", got)
	}
	if len(m.numeric["sensor.temp"]) != 6 {
		t.Errorf("numeric temp points: got %d, want 6", len(m.numeric["sensor.temp"]))
	}
	if len(m.numeric["binary_sensor.door"]) != 0 {
		t.Error("door has no numeric points")
	}
	if m.cursor != 5 {
		t.Errorf("cursor starts at the newest slot: got %d", m.cursor)
	}
}

func TestNavigationAndView(t *testing.T) {
	dir := t.TempDir()
	record(t, dir, time.Date(2026, 4, 2, 9, 40, 0, 0, time.Local))
	days, _ := store.ListDays(dir)

	m := newModel(dir, days)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 50})
	m = next.(model)

	out := m.View()
	for _, want := range []string{"2026-04-02", "binary_sensor", "Door", "Offen", "Temp", "25"} {
		if !strings.Contains(out, want) {
			t.Errorf("view should contain %q", want)
		}
	}

	m = press(m, "h")
	if m.cursor != 4 {
		t.Errorf("h: got cursor %d, want 4", m.cursor)
	}
	m = press(m, "H")
	if m.cursor != 0 {
		t.Errorf("H: got cursor %d, want 0", m.cursor)
	}
	m = press(m, "L")
	if m.cursor != 5 {
		t.Errorf("L: got cursor %d, want 5", m.cursor)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyHome})
	m = next.(model)
	if got := rowAtTime(m.series["sensor.temp"], m.timeSlots[m.cursor]); got.Value != "20" {
		t.Errorf("value at first slot: got %q, want 20", got.Value)
	}
}

func TestSparkWindow(t *testing.T) {
	base := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	var pts []history.Point
	for i := 0; i < 10; i++ {
		pts = append(pts, history.Point{Value: float64(i), Time: base.Add(time.Duration(i) * time.Minute)})
	}

	w := sparkWindow(pts, base.Add(5*time.Minute), 3)
	if len(w) != 3 || w[0].Value != 3 || w[2].Value != 5 {
		t.Errorf("sparkWindow: got %+v", w)
	}
	if w := sparkWindow(pts, base.Add(-time.Minute), 3); len(w) != 0 {
		t.Errorf("window before the first point: got %d points", len(w))
	}

	lo, hi, avg := summarize(pts)
	if lo != 0 || hi != 9 || avg != 4.5 {
		t.Errorf("summarize: got %v %v %v", lo, hi, avg)
	}
}

func TestDomain(t *testing.T) {
	if got := domain("sensor.temp"); got != "sensor" {
		t.Errorf("domain: got %s, want sensor", got)
	}
	if got := domain("plain"); got != "plain" {
		t.Errorf("domain: got %s, want plain", got)
	}
}
