// Package viewer implements the browser for recorded dashboard rows, with
// time scrubbing, day navigation and sparkline windows.
package viewer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"

	"github.com/luki/hasensors/internal/chart"
	"github.com/luki/hasensors/internal/history"
	"github.com/luki/hasensors/internal/sensor"
	"github.com/luki/hasensors/internal/store"
)

// ErrNoData is returned by Run when nothing has been recorded yet.
var ErrNoData = eris.New("no recorded data")

// skipSlots is how far H/L jump.
const skipSlots = 12

// Run launches the viewer on the recordings in dir (DataDir() when empty).
func Run(dir string) error {
	if dir == "" {
		dir = store.DataDir()
	}
	days, err := store.ListDays(dir)
	if err != nil || len(days) == 0 {
		return eris.Wrapf(ErrNoData, "nothing found in %s", dir)
	}

	p := tea.NewProgram(
		newModel(dir, days),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return eris.Wrap(err, "viewer failed")
	}
	return nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorDomain   = lipgloss.Color("147")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorAccent   = lipgloss.Color("214")
	colorAlert    = lipgloss.Color("196")
)

// ── Model ────────────────────────────────────────────────────────────

type model struct {
	dir     string
	days    []string          // available dates, newest first
	dayIdx  int               // currently selected day
	rows    []store.StoredRow // all rows for current day
	sensors []string          // entity ids (sorted)
	cursor  int               // time cursor position
	scroll  int               // vertical scroll offset
	width   int
	height  int
	err     error

	timeSlots []time.Time                  // unique timestamps (sorted)
	series    map[string][]store.StoredRow // entity id -> rows sorted by time
	numeric   map[string][]history.Point   // entity id -> leading numbers
}

func newModel(dir string, days []string) model {
	m := model{
		dir:  dir,
		days: days,
	}
	m.loadDay()
	return m
}

func (m *model) loadDay() {
	day := m.days[m.dayIdx]
	rows, err := store.LoadDay(m.dir, day)
	m.rows = rows
	m.err = err

	timeSet := make(map[int64]time.Time)
	series := make(map[string][]store.StoredRow)
	numeric := make(map[string][]history.Point)

	for _, r := range rows {
		timeSet[r.Time.Unix()] = r.Time
		series[r.Sensor] = append(series[r.Sensor], r)
	}

	sensors := make([]string, 0, len(series))
	for k, rs := range series {
		sensors = append(sensors, k)
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })
		for _, r := range rs {
			if n, ok := r.Number(); ok {
				numeric[k] = append(numeric[k], history.Point{Value: n, Time: r.Time})
			}
		}
	}
	sort.Strings(sensors)
	m.sensors = sensors
	m.series = series
	m.numeric = numeric

	times := make([]time.Time, 0, len(timeSet))
	for _, t := range timeSet {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	m.timeSlots = times

	m.cursor = max(len(m.timeSlots)-1, 0)
	m.scroll = 0
}

// ── Init / Update ────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		last := max(len(m.timeSlots)-1, 0)
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			m.cursor = max(m.cursor-1, 0)
		case "right", "l":
			m.cursor = min(m.cursor+1, last)
		case "shift+left", "H":
			m.cursor = max(m.cursor-skipSlots, 0)
		case "shift+right", "L":
			m.cursor = min(m.cursor+skipSlots, last)
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = last

		case "[":
			if m.dayIdx < len(m.days)-1 {
				m.dayIdx++
				m.loadDay()
			}
		case "]":
			if m.dayIdx > 0 {
				m.dayIdx--
				m.loadDay()
			}

		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// ── View ─────────────────────────────────────────────────────────────

func (m model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := max(m.width-2, 40)

	var sections []string
	sections = append(sections, m.renderTitle(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorAlert).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	if len(m.timeSlots) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render("No data for this day.")
		sections = append(sections, empty)
	} else {
		sections = append(sections, m.renderCursorInfo(contentWidth))
		sections = append(sections, m.renderPanels(contentWidth)...)
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := max(m.height, 5)
	maxScroll := max(len(lines)-visibleLines, 0)
	start := min(m.scroll, maxScroll)
	end := min(start+visibleLines, len(lines))

	return strings.Join(lines[start:end], "\n")
}

func (m model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("HOME ASSISTANT HISTORY")

	dayText := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(m.days[m.dayIdx])

	nav := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  [ %d/%d ]", m.dayIdx+1, len(m.days)))

	dataInfo := ""
	if len(m.timeSlots) > 0 {
		first := m.timeSlots[0].Format("15:04:05")
		last := m.timeSlots[len(m.timeSlots)-1].Format("15:04:05")
		dataInfo = lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("  %s - %s  (%d polls, %d sensors)",
				first, last, len(m.timeSlots), len(m.sensors)))
	}

	right := dayText + nav + dataInfo

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m model) renderCursorInfo(width int) string {
	if m.cursor < 0 || m.cursor >= len(m.timeSlots) {
		return ""
	}

	ts := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(m.timeSlots[m.cursor].Format("15:04:05"))

	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(m.timeSlots)))

	scrubber := m.renderScrubber(max(width-30, 10))

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + ts + pos + "  " + scrubber)
}

func (m model) renderScrubber(width int) string {
	if len(m.timeSlots) == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if len(m.timeSlots) > 1 {
		pos = m.cursor * (width - 1) / (len(m.timeSlots) - 1)
	}
	pos = min(pos, width-1)

	var sb strings.Builder
	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i := 0; i < width; i++ {
		if i == pos {
			sb.WriteString(curS.Render("◆"))
			continue
		}
		slotIdx := 0
		if len(m.timeSlots) > 1 && width > 1 {
			slotIdx = i * (len(m.timeSlots) - 1) / (width - 1)
		}
		if slotIdx > 0 && slotIdx < len(m.timeSlots) &&
			m.timeSlots[slotIdx].Hour() != m.timeSlots[slotIdx-1].Hour() {
			sb.WriteString(tickS.Render("│"))
			continue
		}
		sb.WriteString(dimS.Render("─"))
	}

	return sb.String()
}

// domain returns the entity domain ("sensor" for "sensor.temp").
func domain(id string) string {
	if d, _, ok := strings.Cut(id, "."); ok {
		return d
	}
	return id
}

func (m model) renderPanels(totalWidth int) []string {
	if m.cursor < 0 || m.cursor >= len(m.timeSlots) {
		return nil
	}

	cursorTime := m.timeSlots[m.cursor]

	innerWidth := max(totalWidth-4, 30)
	chartWidth := max(min(innerWidth-64, 140), 15)

	labelW := 22
	valueW := 12
	unitW := 6

	var domainOrder []string
	groups := make(map[string][]string)
	for _, id := range m.sensors {
		d := domain(id)
		if _, ok := groups[d]; !ok {
			domainOrder = append(domainOrder, d)
		}
		groups[d] = append(groups[d], id)
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var panels []string

	for _, d := range domainOrder {
		var lines []string

		lines = append(lines, lipgloss.NewStyle().
			Bold(true).
			Foreground(colorDomain).
			Render(d))

		for _, id := range groups[d] {
			rs := m.series[id]
			if len(rs) == 0 {
				continue
			}
			cur := rowAtTime(rs, cursorTime)

			label := lipgloss.NewStyle().
				Foreground(colorLabel).
				Bold(true).
				Width(labelW).
				Render(truncate(cur.Name, labelW))

			value := chart.RenderValue(truncate(cur.Value, valueW), cur.Raw, sensor.Number{}, cur.Blink)
			value = lipgloss.NewStyle().Width(valueW).Align(lipgloss.Right).Render(value)
			unit := dimS.Width(unitW).Render(truncate(cur.Unit, unitW))

			line := label + " " + value + " " + unit

			pts := m.numeric[id]
			if len(pts) > 0 {
				window := sparkWindow(pts, cursorTime, chartWidth)
				lo, hi := chart.Range(pts)
				spark := chart.RenderSparklinePoints(window, chartWidth, lo, hi, sensor.Number{}, time.Hour)
				line += " " + frameL + spark + frameR

				minV, maxV, avg := summarize(pts)
				line += dimS.Render(" avg") + valS.Render(fmt.Sprintf("%7.1f", avg)) +
					dimS.Render(" lo") + valS.Render(fmt.Sprintf("%7.1f", minV)) +
					dimS.Render(" pk") + valS.Render(fmt.Sprintf("%7.1f", maxV))
				lines = append(lines, line)

				timeline := chart.RenderTimeline(window, chartWidth, time.Hour)
				if strings.TrimSpace(timeline) != "" {
					pad := strings.Repeat(" ", labelW+valueW+unitW+3)
					lines = append(lines, pad+timeline)
				}
				continue
			}
			lines = append(lines, line)
		}

		panels = append(panels, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(totalWidth).
			Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}

	return panels
}

func (m model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(fmt.Sprintf(":skip %d", skipSlots)) +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  [/]") + keyS.Render(":day") +
		dimS.Render("  j/k") + keyS.Render(":scroll")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

// ── Helpers ──────────────────────────────────────────────────────────

// rowAtTime returns the newest row recorded at or before t, or the first
// row when t precedes all of them.
func rowAtTime(rs []store.StoredRow, t time.Time) store.StoredRow {
	best := rs[0]
	for _, r := range rs {
		if r.Time.After(t) {
			break
		}
		best = r
	}
	return best
}

// sparkWindow returns the last width points at or before t.
func sparkWindow(pts []history.Point, t time.Time, width int) []history.Point {
	end := sort.Search(len(pts), func(i int) bool { return pts[i].Time.After(t) })
	start := max(end-width, 0)
	return pts[start:end]
}

func summarize(pts []history.Point) (minV, maxV, avg float64) {
	minV, maxV = math.MaxFloat64, -math.MaxFloat64
	for _, p := range pts {
		minV = math.Min(minV, p.Value)
		maxV = math.Max(maxV, p.Value)
		avg += p.Value
	}
	return minV, maxV, avg / float64(len(pts))
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}
