package sim

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"gonum.org/v1/gonum/spatial/r2"

	"raydar-sim/internal/config"
	"raydar-sim/internal/telemetry"
	"raydar-sim/internal/tracker"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Snapshot is a consistent view of the scanner and its blips.
type Snapshot struct {
	Scanner ScannerView
	Blips   []tracker.Blip
}

// SnapshotSource lets renderers poll the simulator at their own frame rate.
type SnapshotSource interface {
	SetSnapshot(func() Snapshot)
}

// Snapshot returns the scanner and blips under a single lock.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Scanner: s.scannerLocked(), Blips: s.tracker.Blips()}
}

// detectionMsg carries a detection log line and row data.
type detectionMsg struct {
	line string
	row  telemetry.DetectionRow
}

// blipsMsg carries the blip rows of one report tick.
type blipsMsg struct{ rows []telemetry.BlipRow }

// stateMsg carries a scanner state update.
type stateMsg struct{ telemetry.ScannerStateRow }

// adminMsg reports admin UI status.
type adminMsg struct{ active bool }

type frameMsg time.Time

type setSpawnMsg struct {
	fn func(tracker.Spec) (string, error)
}
type setRemoveMsg struct{ fn func(string) bool }
type setSnapshotMsg struct{ fn func() Snapshot }

// spawnResultMsg reports the outcome of a spawn or remove issued from the TUI.
type spawnResultMsg struct {
	line string
	err  error
}

const (
	tuiFrameInterval = 50 * time.Millisecond
	maxDetectionLogs = 1000
	scopeWidthPct    = 0.55
)

// TUIWriter renders the radar scope using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		// Quitting the TUI stops the whole simulator.
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(row telemetry.BlipRow) error {
	return w.WriteBatch([]telemetry.BlipRow{row})
}

// WriteBatch replaces the track table with one report tick of blips.
func (w *TUIWriter) WriteBatch(rows []telemetry.BlipRow) error {
	w.program.Send(blipsMsg{rows: rows})
	return nil
}

// WriteDetection implements DetectionWriter.
func (w *TUIWriter) WriteDetection(d telemetry.DetectionRow) error {
	w.program.Send(detectionMsg{line: formatDetection(d), row: d})
	return nil
}

// WriteDetections outputs multiple detection rows.
func (w *TUIWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	for _, d := range rows {
		_ = w.WriteDetection(d)
	}
	return nil
}

// WriteState implements StateWriter.
func (w *TUIWriter) WriteState(row telemetry.ScannerStateRow) error {
	w.program.Send(stateMsg{ScannerStateRow: row})
	return nil
}

// SetAdminStatus updates the admin UI indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// SetSpawner registers a callback to spawn targets.
func (w *TUIWriter) SetSpawner(fn func(tracker.Spec) (string, error)) {
	w.program.Send(setSpawnMsg{fn: fn})
}

// SetRemover registers a callback to remove targets.
func (w *TUIWriter) SetRemover(fn func(string) bool) {
	w.program.Send(setRemoveMsg{fn: fn})
}

// SetSnapshot registers the source polled on every frame.
func (w *TUIWriter) SetSnapshot(fn func() Snapshot) {
	w.program.Send(setSnapshotMsg{fn: fn})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

func formatDetection(d telemetry.DetectionRow) string {
	return fmt.Sprintf("%s[%s]%s %sDETECT%s %s%-8s%s %srng=%.1f%s %sbrg=%05.1f%s %shdg=%05.1f%s %sspd=%.1f%s %st=%.2fs%s",
		colorGray, d.Timestamp.Format(time.RFC3339), colorReset,
		colorGreen, colorReset,
		colorWhite(), d.Callsign, colorReset,
		colorYellow, d.Range, colorReset,
		colorCyan, d.Bearing, colorReset,
		colorMagenta, d.Heading, colorReset,
		colorBlue, d.Speed, colorReset,
		colorGray, d.SimTime, colorReset)
}

type tuiModel struct {
	cfg         *config.SimulationConfig
	table       table.Model
	vp          viewport.Model
	detLogs     []string
	state       telemetry.ScannerStateRow
	snap        Snapshot
	haveSnap    bool
	admin       bool
	wrap        bool
	autoscroll  bool
	showScope   bool
	help        bool
	width       int
	height      int
	spawn       func(tracker.Spec) (string, error)
	remove      func(string) bool
	snapshot    func() Snapshot
	spawnInput  textinput.Model
	spawnDialog bool
	rmInput     textinput.Model
	rmDialog    bool
	status      string
	detections  int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Callsign", Width: 9},
		{Title: "State", Width: 8},
		{Title: "X", Width: 6},
		{Title: "Y", Width: 6},
		{Title: "Hdg", Width: 5},
		{Title: "Opacity", Width: 7},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(10))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		showScope:  true,
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(tuiFrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m tuiModel) Init() tea.Cmd { return frameTick() }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width
		m.layout()
		m.refreshViewport()
	case frameMsg:
		if m.snapshot != nil {
			m.snap = m.snapshot()
			m.haveSnap = true
		}
		return m, frameTick()
	case tea.KeyMsg:
		if m.spawnDialog {
			return m.updateSpawnDialog(msg)
		}
		if m.rmDialog {
			return m.updateRemoveDialog(msg)
		}
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "r":
			m.showScope = !m.showScope
			m.layout()
			return m, nil
		case "n":
			m.spawnInput = textinput.New()
			m.spawnInput.Placeholder = "callsign,x,y,heading,speed"
			m.spawnInput.SetValue(m.defaultSpawnInput())
			m.spawnInput.CursorEnd()
			m.spawnInput.Focus()
			m.spawnDialog = true
			m.layout()
			return m, nil
		case "x":
			m.rmInput = textinput.New()
			m.rmInput.Placeholder = "callsign or id"
			m.rmInput.Focus()
			m.rmDialog = true
			m.layout()
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case detectionMsg:
		m.detLogs = append(m.detLogs, msg.line)
		if len(m.detLogs) > maxDetectionLogs {
			m.detLogs = m.detLogs[len(m.detLogs)-maxDetectionLogs:]
		}
		m.detections++
		m.refreshViewport()
	case blipsMsg:
		rows := make([]table.Row, 0, len(msg.rows))
		for _, b := range msg.rows {
			rows = append(rows, table.Row{
				b.Callsign,
				b.State,
				fmt.Sprintf("%.0f", b.X),
				fmt.Sprintf("%.0f", b.Y),
				fmt.Sprintf("%.0f", b.Heading),
				fmt.Sprintf("%.2f", b.Opacity),
			})
		}
		m.table.SetRows(rows)
	case stateMsg:
		m.state = msg.ScannerStateRow
	case adminMsg:
		m.admin = msg.active
	case setSpawnMsg:
		m.spawn = msg.fn
	case setRemoveMsg:
		m.remove = msg.fn
	case setSnapshotMsg:
		m.snapshot = msg.fn
	case spawnResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%serror:%s %v", colorRed, colorReset, msg.err)
		} else {
			m.status = msg.line
		}
	}
	return m, nil
}

func (m tuiModel) updateSpawnDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.spawnDialog = false
		m.layout()
		spec, err := parseSpawnInput(m.spawnInput.Value())
		if err != nil {
			m.status = fmt.Sprintf("%serror:%s %v", colorRed, colorReset, err)
			return m, nil
		}
		if m.spawn == nil {
			return m, nil
		}
		spawn := m.spawn
		return m, func() tea.Msg {
			id, err := spawn(spec)
			return spawnResultMsg{line: fmt.Sprintf("spawned %s (%s)", spec.Callsign, shortID(id)), err: err}
		}
	case tea.KeyEsc:
		m.spawnDialog = false
		m.layout()
		return m, nil
	}
	var cmd tea.Cmd
	m.spawnInput, cmd = m.spawnInput.Update(msg)
	return m, cmd
}

func (m tuiModel) updateRemoveDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.rmDialog = false
		m.layout()
		id, ok := m.resolveTarget(strings.TrimSpace(m.rmInput.Value()))
		if !ok {
			m.status = fmt.Sprintf("%serror:%s no target %q", colorRed, colorReset, m.rmInput.Value())
			return m, nil
		}
		if m.remove == nil {
			return m, nil
		}
		remove := m.remove
		return m, func() tea.Msg {
			if !remove(id) {
				return spawnResultMsg{err: fmt.Errorf("target %s already gone", shortID(id))}
			}
			return spawnResultMsg{line: fmt.Sprintf("removed %s", shortID(id))}
		}
	case tea.KeyEsc:
		m.rmDialog = false
		m.layout()
		return m, nil
	}
	var cmd tea.Cmd
	m.rmInput, cmd = m.rmInput.Update(msg)
	return m, cmd
}

// resolveTarget matches a callsign or an ID prefix against the last snapshot.
func (m tuiModel) resolveTarget(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, b := range m.snap.Blips {
		if strings.EqualFold(b.Callsign, key) || strings.HasPrefix(b.ID, key) {
			return b.ID, true
		}
	}
	return "", false
}

func (m tuiModel) defaultSpawnInput() string {
	cx, cy := m.cfg.Radar.CenterX, m.cfg.Radar.CenterY
	if m.haveSnap {
		cx, cy = m.snap.Scanner.CenterX, m.snap.Scanner.CenterY
	}
	return fmt.Sprintf("NEW%02d,%.0f,%.0f,0,%.0f", m.detections%100, cx, cy, m.cfg.Targets.SpeedMin)
}

// parseSpawnInput reads "callsign,x,y,heading,speed". Speed may be omitted.
func parseSpawnInput(val string) (tracker.Spec, error) {
	parts := strings.Split(val, ",")
	if len(parts) < 4 {
		return tracker.Spec{}, errors.New("expected callsign,x,y,heading[,speed]")
	}
	nums := make([]float64, 0, 4)
	for _, p := range parts[1:] {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return tracker.Spec{}, fmt.Errorf("invalid number %q", strings.TrimSpace(p))
		}
		nums = append(nums, f)
	}
	spec := tracker.Spec{
		Callsign: strings.TrimSpace(parts[0]),
		Position: r2.Vec{X: nums[0], Y: nums[1]},
		Heading:  nums[2],
	}
	if len(nums) > 3 {
		if nums[3] < 0 {
			return tracker.Spec{}, errors.New("speed must not be negative")
		}
		spec.Speed = nums[3]
	}
	return spec, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// layout sizes the track table and the detection log to the window.
func (m *tuiModel) layout() {
	if m.height == 0 {
		return
	}
	top := m.scopeHeight()
	h := m.height - top - lipgloss.Height(m.renderBottom()) - 4
	if m.spawnDialog || m.rmDialog {
		h--
	}
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
	m.table.SetHeight(max(top-1, 2))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) scopeHeight() int {
	if !m.showScope {
		return 12
	}
	return max(m.height*3/5, 5)
}

func (m *tuiModel) refreshViewport() {
	content := "none"
	if len(m.detLogs) > 0 {
		lines := m.detLogs
		if m.wrap && m.vp.Width > 0 {
			lines = make([]string, len(m.detLogs))
			for i, l := range m.detLogs {
				lines[i] = wordwrap.String(l, m.vp.Width)
			}
		}
		content = strings.Join(lines, "\n")
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	top := m.table.View()
	if m.showScope && m.haveSnap {
		scopeW := int(float64(m.width) * scopeWidthPct)
		scope := renderScope(scopeW, m.scopeHeight(), m.snap.Scanner, m.snap.Blips)
		sep := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("│")
		top = lipgloss.JoinHorizontal(lipgloss.Top, scope, sep, top)
	}
	sections := []string{
		m.renderHeader(),
		divider,
		top,
		divider,
		"Detections:",
		m.vp.View(),
	}
	if m.spawnDialog {
		sections = append(sections, fmt.Sprintf("Spawn target (callsign,x,y,heading,speed) - Enter to spawn, Esc to cancel: %s", m.spawnInput.View()))
	}
	if m.rmDialog {
		sections = append(sections, fmt.Sprintf("Remove target (callsign or id) - Enter to remove, Esc to cancel: %s", m.rmInput.View()))
	}
	sections = append(sections, divider, m.renderBottom())
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	r := m.cfg.Radar
	radius := r.Radius
	if m.haveSnap {
		radius = m.snap.Scanner.Radius
	}
	return fmt.Sprintf("%sRAYDAR%s site=%s rpm=%.1f radius=%.0f det_radius=%.0f fade=%.2f/s debounce=%.2f rev capacity=%d",
		colorGreen, colorReset, m.cfg.SiteID, r.RPM, radius, r.DetectionRadius, r.FadeRate, r.DebounceFraction, m.cfg.Targets.Capacity)
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	state := fmt.Sprintf("%sSCAN%s %sangle=%05.1f%s %stargets=%d%s %svisible=%d%s %sdetections=%d%s %st=%.1fs%s",
		colorBlue, colorReset,
		colorCyan, m.state.AngleDeg, colorReset,
		colorWhite(), m.state.Targets, colorReset,
		colorGreen, m.state.Visible, colorReset,
		colorYellow, m.state.Detections, colorReset,
		colorGray, m.state.SimTime, colorReset)
	line := fmt.Sprintf("%s | Admin UI %s | Wrap %s | Scroll %s | Scope %s | h help",
		state, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll), indicator(m.showScope))
	if m.status != "" {
		return m.status + "\n" + line
	}
	return line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" n  spawn target (callsign,x,y,heading,speed)",
		" x  remove target (callsign or id)",
		" r  toggle scope view",
		" w  toggle wrap for detection log",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
