// Package chart renders sparklines of sensor history, coloured against the
// row's alert threshold, with tick marks and a timeline underneath.
package chart

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/hasensors/internal/history"
	"github.com/luki/hasensors/internal/sensor"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const (
	colorAlert = lipgloss.Color("196") // red
	colorWarn  = lipgloss.Color("220") // yellow
	colorOK    = lipgloss.Color("78")  // soft green
	colorDim   = lipgloss.Color("236")
	colorTick  = lipgloss.Color("239")

	warnRatio = 0.85
)

// ValueColor colours a reading against an alert threshold. Above the
// threshold is red, within 15% below it yellow. Without a valid threshold
// everything is green.
func ValueColor(v float64, threshold sensor.Number) lipgloss.Color {
	if !threshold.Valid() {
		return colorOK
	}
	switch {
	case v > threshold.Value:
		return colorAlert
	case threshold.Value > 0 && v >= threshold.Value*warnRatio:
		return colorWarn
	default:
		return colorOK
	}
}

// Range returns the min and max of the points, widened so a flat line sits
// in the middle of the chart.
func Range(points []history.Point) (lo, hi float64) {
	if len(points) == 0 {
		return 0, 1
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	if hi-lo < 1e-9 {
		pad := math.Max(math.Abs(lo)*0.05, 0.5)
		return lo - pad, hi + pad
	}
	return lo, hi
}

// RenderSparklinePoints renders a sparkline of the newest width points. When
// tick is positive a subtle pipe replaces the block of every point that
// starts a new tick period.
func RenderSparklinePoints(points []history.Point, width int, rangeMin, rangeMax float64, threshold sensor.Number, tick time.Duration) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(colorDim)
	if len(points) == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("╌"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(colorTick)

	for i, p := range points {
		if isTick(points, i, tick) {
			sb.WriteString(tickStyle.Render("│"))
			continue
		}

		norm := (p.Value - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := min(int(norm*7), 7)

		style := lipgloss.NewStyle().Foreground(ValueColor(p.Value, threshold))
		if threshold.Valid() && p.Value > threshold.Value {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

// isTick reports whether point i is the first one of a tick period.
func isTick(points []history.Point, i int, tick time.Duration) bool {
	if tick <= 0 || i == 0 {
		return false
	}
	cur, prev := points[i].Time, points[i-1].Time
	if cur.IsZero() || prev.IsZero() {
		return false
	}
	return !cur.Truncate(tick).Equal(prev.Truncate(tick))
}

// RenderTimeline renders HH:MM labels under the sparkline at each tick.
func RenderTimeline(points []history.Point, width int, tick time.Duration) string {
	if len(points) == 0 || width <= 0 || tick <= 0 {
		return ""
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	lastEnd := -1
	for i, p := range points {
		if !isTick(points, i, tick) {
			continue
		}
		label := p.Time.Format("15:04")
		start := max(padLen+i-2, 0)
		end := start + len(label)
		if end > width || start <= lastEnd+1 {
			continue
		}
		for j, ch := range label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	return lipgloss.NewStyle().Foreground(colorTick).Render(string(line))
}

// RenderValue renders a row's display text coloured by its leading number
// against the threshold. Rows in alert blink.
func RenderValue(text string, raw sensor.Value, threshold sensor.Number, blink bool) string {
	style := lipgloss.NewStyle()
	if n, ok := raw.Number(); ok {
		style = style.Foreground(ValueColor(n, threshold))
	}
	if blink {
		style = style.Foreground(colorAlert).Bold(true).Blink(true)
	}
	return style.Render(text)
}
