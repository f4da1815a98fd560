// Package monitor implements the live Home Assistant dashboard using
// BubbleTea, with per-row sparklines and blinking alert rows.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/luki/hasensors/internal/chart"
	"github.com/luki/hasensors/internal/config"
	"github.com/luki/hasensors/internal/hass"
	"github.com/luki/hasensors/internal/history"
	"github.com/luki/hasensors/internal/logging"
	"github.com/luki/hasensors/internal/sensor"
)

func logger() *zerolog.Logger {
	return logging.For("monitor")
}

// ── Messages ─────────────────────────────────────────────────────────

// tickMsg and the fetch results carry the generation they were started
// in; anything from before the last config reload is dropped.
type tickMsg struct {
	gen int
	t   time.Time
}

type snapshotMsg struct {
	gen      int
	entities []hass.Entity
	at       time.Time
}

type fetchErrMsg struct {
	gen int
	err error
}

type configMsg struct {
	cfg *config.Config
	err error
}

// ── Model ────────────────────────────────────────────────────────────

// Recorder persists the rows of every successful poll.
type Recorder interface {
	Write(rows []sensor.Row, t time.Time) error
	Dir() string
	Close()
}

// Options configures a new dashboard.
type Options struct {
	// Config is the initial configuration. A config that fails validation
	// is shown as an error and nothing is polled.
	Config *config.Config
	// NewFetcher builds the fetch collaborator for an endpoint. Defaults to
	// hass.NewClient.
	NewFetcher func(hass.Endpoint) hass.Fetcher
	// Reload re-reads the configuration when r is pressed. Reloading is
	// disabled when nil.
	Reload func() (*config.Config, error)
	// Recorder is optional.
	Recorder Recorder
}

// Model is the BubbleTea model for the live dashboard.
type Model struct {
	cfg        *config.Config
	configErr  error
	fetcher    hass.Fetcher
	newFetcher func(hass.Endpoint) hass.Fetcher
	reload     func() (*config.Config, error)
	recorder   Recorder

	snapshot *hass.Snapshot
	lastErr  error
	history  *history.Store
	spinner  spinner.Model

	gen      int
	inFlight bool
	refetch  bool
	skipped  int
	paused   bool

	width     int
	height    int
	scroll    int
	lastPoll  time.Time
	startTime time.Time
}

// New creates the initial model for the dashboard.
func New(opts Options) Model {
	newFetcher := opts.NewFetcher
	if newFetcher == nil {
		newFetcher = func(ep hass.Endpoint) hass.Fetcher { return hass.NewClient(ep) }
	}
	cfg := opts.Config
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}

	m := Model{
		newFetcher: newFetcher,
		reload:     opts.Reload,
		recorder:   opts.Recorder,
		history:    history.NewStore(history.DefaultCapacity),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(colorTitleFg))),
		startTime:  time.Now(),
	}
	m.apply(cfg)
	// Init starts the first fetch.
	m.inFlight = m.fetcher != nil
	return m
}

// apply installs a configuration and starts a new tick generation.
func (m *Model) apply(cfg *config.Config) {
	m.cfg = cfg
	m.gen++
	m.configErr = cfg.Validate()
	m.fetcher = nil
	if m.configErr != nil {
		logger().Error().Err(m.configErr).Msg("configuration is not usable, polling stopped")
		return
	}
	m.fetcher = m.newFetcher(cfg.Endpoint())
	logger().Info().
		Str("url", cfg.Endpoint().URL()).
		Dur("interval", cfg.Interval()).
		Int("sensors", len(cfg.Values)).
		Msg("configuration applied")
}

// ── Commands ─────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	gen := m.gen
	return tea.Tick(m.cfg.Interval(), func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, t: t}
	})
}

func (m Model) fetchCmd() tea.Cmd {
	f, gen := m.fetcher, m.gen
	return func() tea.Msg {
		entities, err := f.FetchEntities(context.Background())
		if err != nil {
			return fetchErrMsg{gen: gen, err: err}
		}
		return snapshotMsg{gen: gen, entities: entities, at: time.Now()}
	}
}

func (m Model) reloadCmd() tea.Cmd {
	reload := m.reload
	return func() tea.Msg {
		cfg, err := reload()
		return configMsg{cfg: cfg, err: err}
	}
}

// requestFetch starts a fetch unless one is already running.
func (m *Model) requestFetch() tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	if m.inFlight {
		m.skipped++
		logger().Debug().Int("skipped", m.skipped).Msg("previous fetch still running, skipping tick")
		return nil
	}
	m.inFlight = true
	return m.fetchCmd()
}

// start polls immediately and installs the tick chain of the current
// generation.
func (m *Model) start() tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	if m.inFlight {
		// The running fetch belongs to an older generation; fetch again as
		// soon as it finishes.
		m.refetch = true
		return m.tickCmd()
	}
	return tea.Batch(m.requestFetch(), m.tickCmd())
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	if m.fetcher == nil {
		return m.spinner.Tick
	}
	return tea.Batch(m.spinner.Tick, m.fetchCmd(), m.tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.recorder != nil {
				m.recorder.Close()
			}
			return m, tea.Quit
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		case " ", "p":
			m.paused = !m.paused
			logger().Info().Bool("paused", m.paused).Msg("polling toggled")
		case "r":
			if m.reload != nil {
				return m, m.reloadCmd()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		next := m.tickCmd()
		if m.paused {
			return m, next
		}
		return m, tea.Batch(m.requestFetch(), next)

	case snapshotMsg:
		m.inFlight = false
		if msg.gen != m.gen {
			logger().Debug().Int("gen", msg.gen).Msg("dropping result from before reload")
			return m, m.afterStale()
		}
		m.snapshot = hass.NewSnapshot(msg.entities, msg.at)
		m.lastErr = nil
		m.lastPoll = msg.at
		m.recordRows(msg.at)

	case fetchErrMsg:
		m.inFlight = false
		if msg.gen != m.gen {
			return m, m.afterStale()
		}
		m.lastErr = msg.err
		logger().Warn().Err(msg.err).Msg("fetch failed")

	case configMsg:
		if msg.err != nil {
			m.gen++
			m.fetcher = nil
			m.configErr = msg.err
			logger().Error().Err(msg.err).Msg("reloading configuration failed")
			return m, nil
		}
		m.lastErr = nil
		m.apply(msg.cfg)
		return m, m.start()
	}

	return m, nil
}

func (m *Model) afterStale() tea.Cmd {
	if !m.refetch {
		return nil
	}
	m.refetch = false
	return m.requestFetch()
}

// view runs the pipeline for the current state.
func (m Model) view() sensor.View {
	err := m.lastErr
	if m.configErr != nil {
		err = m.configErr
	}
	return sensor.Render(m.snapshot, err, m.cfg.Values, m.cfg.Settings())
}

// recordRows feeds the sparkline history and the recorder with the rows
// of a fresh snapshot.
func (m *Model) recordRows(at time.Time) {
	v := m.view()
	if v.State != sensor.StateRows {
		return
	}
	keep := make(map[string]bool, len(v.Rows))
	for _, r := range v.Rows {
		keep[r.Key()] = true
		if n, ok := r.Raw.Number(); ok {
			m.history.Record(r.Key(), n, at)
		}
	}
	if pruned := m.history.Prune(keep); pruned > 0 {
		logger().Debug().Int("pruned", pruned).Msg("dropped history of removed rows")
	}
	if m.recorder != nil {
		if err := m.recorder.Write(v.Rows, at); err != nil {
			logger().Warn().Err(err).Msg("recording rows failed")
		}
	}
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorUnit     = lipgloss.Color("245")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorAlert    = lipgloss.Color("196")
	colorPaused   = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := max(m.width-2, 40)

	var sections []string
	sections = append(sections, m.renderTitleBar(contentWidth))

	v := m.view()
	switch v.State {
	case sensor.StateLoading:
		loading := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render(m.spinner.View() + " " + v.Message())
		sections = append(sections, loading)
	case sensor.StateError:
		errBox := lipgloss.NewStyle().
			Foreground(colorAlert).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAlert).
			Width(contentWidth).
			Padding(0, 1).
			Render("ERROR: " + v.Message())
		sections = append(sections, errBox)
	case sensor.StateEmpty:
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render(v.Message())
		sections = append(sections, empty)
	default:
		sections = append(sections, m.renderRows(v.Rows, contentWidth))
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

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render(strings.ToUpper(m.cfg.Title))

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	var statusParts []string

	statusParts = append(statusParts, dimS.Render("up "+fmtDuration(time.Since(m.startTime))))
	statusParts = append(statusParts, dimS.Render("every "+fmtDuration(m.cfg.Interval())))

	if !m.lastPoll.IsZero() {
		statusParts = append(statusParts, dimS.Render(m.lastPoll.Format("15:04:05")))
	}

	if m.paused {
		p := lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED")
		statusParts = append(statusParts, p)
	}

	if m.recorder != nil {
		rec := lipgloss.NewStyle().Foreground(colorAlert).Render("REC") +
			dimS.Render(" "+m.recorder.Dir())
		statusParts = append(statusParts, rec)
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m Model) renderRows(rows []sensor.Row, totalWidth int) string {
	settings := m.cfg.Settings()
	thresholds := m.cfg.Thresholds()

	innerWidth := max(totalWidth-4, 30)

	labelW := 8
	valueW := 5
	unitW := 0
	for _, r := range rows {
		labelW = max(labelW, lipgloss.Width(r.Name))
		valueW = max(valueW, lipgloss.Width(r.Value))
		unitW = max(unitW, lipgloss.Width(r.Unit))
	}
	labelW = min(labelW, 28)
	valueW = min(valueW, 24)
	unitW = min(unitW, 8)

	glyphW := 0
	if settings.DisplaySymbol {
		glyphW = 3
	}

	chartWidth := innerWidth - glyphW - labelW - valueW - unitW - 32
	chartWidth = max(min(chartWidth, 120), 10)
	tick := tickPeriod(m.cfg.Interval(), chartWidth)

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var lines []string
	var lastPts []history.Point

	for _, r := range rows {
		var line string

		if settings.DisplaySymbol {
			glyph := ""
			if r.HasIcon {
				glyph = Glyph(r.Icon)
			}
			line += lipgloss.NewStyle().Width(glyphW).Render(glyph)
		}

		line += lipgloss.NewStyle().
			Foreground(colorLabel).
			Width(labelW).
			Render(truncate(r.Name, labelW))

		threshold := thresholds[r.Sensor]
		value := chart.RenderValue(truncate(r.Value, valueW), r.Raw, threshold, r.Blink)
		line += " " + lipgloss.NewStyle().Width(valueW).Align(lipgloss.Right).Render(value)

		if unitW > 0 {
			line += " " + lipgloss.NewStyle().Foreground(colorUnit).Width(unitW).Render(truncate(r.Unit, unitW))
		}

		if hist := m.history.Get(r.Key()); hist.Len() > 0 {
			pts := hist.LastNPoints(chartWidth)
			lastPts = pts
			lo, hi := chart.Range(pts)
			spark := chart.RenderSparklinePoints(pts, chartWidth, lo, hi, threshold, tick)
			line += " " + frameL + spark + frameR

			if st, ok := hist.Stats(); ok {
				line += dimS.Render(" avg") + valS.Render(fmt.Sprintf("%7.1f", st.Avg)) +
					dimS.Render(" lo") + valS.Render(fmt.Sprintf("%7.1f", st.Min)) +
					dimS.Render(" pk") + valS.Render(fmt.Sprintf("%7.1f", st.Peak))
			}
		}

		lines = append(lines, line)
	}

	if lastPts != nil {
		timeline := chart.RenderTimeline(lastPts, chartWidth, tick)
		if strings.TrimSpace(timeline) != "" {
			pad := strings.Repeat(" ", glyphW+labelW+valueW+unitW+3)
			lines = append(lines, pad+timeline)
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderFooter(width int) string {
	okS := lipgloss.NewStyle().Foreground(colorOk).Render("██")
	warnS := lipgloss.NewStyle().Foreground(colorWarn).Render("██")
	alertS := lipgloss.NewStyle().Foreground(colorAlert).Render("██")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	labelS := lipgloss.NewStyle().Foreground(colorLabel)
	legend := okS + dimS.Render(" ok ") +
		warnS + dimS.Render(" near ") +
		alertS + dimS.Render(" alert")

	keys := dimS.Render("q") + labelS.Render(":quit") +
		dimS.Render("  j/k") + labelS.Render(":scroll") +
		dimS.Render("  p") + labelS.Render(":pause")
	if m.reload != nil {
		keys += dimS.Render("  r") + labelS.Render(":reload")
	}

	gap := max(width-lipgloss.Width(legend)-lipgloss.Width(keys)-4, 1)
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + filler + keys)
}

// tickPeriod picks a timeline tick so that a full chart shows a handful of
// labels.
func tickPeriod(interval time.Duration, width int) time.Duration {
	span := interval * time.Duration(width)
	for _, p := range []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, time.Hour, 6 * time.Hour, 24 * time.Hour} {
		if span/p <= 8 {
			return p
		}
	}
	return 24 * time.Hour
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

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
