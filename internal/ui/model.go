// Package ui renders the latest telemetry snapshot in a terminal window.
//
// The window re-reads the snapshot store on a fixed refresh interval. It
// never calls into the sampler; the store read is a single atomic load.
package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"sysmonitor/internal/models"
)

// DefaultRefreshInterval is how often the window re-reads the store
const DefaultRefreshInterval = time.Second

// SnapshotReader is the read side of the snapshot store
type SnapshotReader interface {
	Latest() *models.Snapshot
}

// refreshMsg fires when the window should re-read the store
type refreshMsg time.Time

// Model is the root bubbletea model for the monitor window
type Model struct {
	store    SnapshotReader
	interval time.Duration
	theme    Theme
	keys     KeyMap
	now      func() time.Time

	pane     ScrollPane
	rendered Rendered
	snapshot *models.Snapshot

	width  int
	height int
}

// NewModel creates the window model and renders the current snapshot
// (the placeholder, when nothing has been sampled yet).
func NewModel(store SnapshotReader, interval time.Duration, theme Theme) Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	m := Model{
		store:    store,
		interval: interval,
		theme:    theme,
		keys:     DefaultKeyMap(),
		now:      time.Now,
		pane:     NewScrollPane(60, 20),
	}
	m.refresh()
	return m
}

// Init schedules the first refresh
func (m Model) Init() tea.Cmd {
	return refreshCmd(m.interval)
}

// refreshCmd re-arms the refresh timer. It is issued after each update
// completes, so slow renders delay the next refresh instead of queueing.
func refreshCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update handles all incoming messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.refresh()
		return m, refreshCmd(m.interval)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Top):
			m.pane.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.End):
			m.pane.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.pane, cmd = m.pane.Update(msg)
	return m, cmd
}

// refresh reads the latest snapshot and replaces the displayed text,
// keeping the sensor pane's scroll fraction.
func (m *Model) refresh() {
	m.snapshot = m.store.Latest()
	m.rendered = Render(m.snapshot)
	m.pane.Replace(m.rendered.SensorText())
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	frameW, frameH := m.theme.Pane.GetFrameSize()
	used := lipgloss.Height(m.header()) + lipgloss.Height(m.footer()) + frameH
	height := m.height - used
	if height < 1 {
		height = 1
	}
	width := m.width - frameW
	if width < 1 {
		width = 1
	}
	m.pane.SetSize(width, height)
}

func (m Model) header() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("System Monitor"),
		m.theme.Label.Render(m.rendered.CPU),
		m.theme.Label.Render(m.rendered.Memory),
		m.theme.Label.Render(m.rendered.GPU),
	)
}

func (m Model) footer() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Status.Render(m.status()),
		m.theme.Help.Render(m.keys.helpLine()),
	)
}

func (m Model) status() string {
	if !m.snapshot.Ready() {
		return "waiting for first sample"
	}
	return "updated " + humanize.RelTime(m.snapshot.TakenAt, m.now(), "ago", "from now")
}

// View renders the window
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(m.theme.Pane.Render(m.pane.View()))
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

// Rendered returns the text currently on screen
func (m Model) Rendered() Rendered {
	return m.rendered
}

// ScrollFraction returns the sensor pane's scroll fraction
func (m Model) ScrollFraction() float64 {
	return m.pane.Fraction()
}
