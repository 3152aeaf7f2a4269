// Package logs provides the logs tab, tailing the application log file.
package logs

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
)

// tailLines caps how much of the log file is kept in memory.
const tailLines = 300

// keyMap defines the key bindings specific to the logs tab.
type keyMap struct {
	Refresh key.Binding
	Follow  key.Binding
	Top     key.Binding
	Bottom  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle follow"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
	}
}

// logLoadedMsg carries freshly read log lines.
type logLoadedMsg struct {
	lines []string
	err   error
}

// Model represents the logs tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	path     string
	lines    []string
	follow   bool
	loadErr  error
	loadedAt time.Time
}

// New creates a new logs model.
func New(state *app.State, svc *services.Manager) *Model {
	path := ""
	if svc != nil && svc.Config() != nil {
		path = svc.Config().LogFilePath
	}

	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		path:     path,
		follow:   true,
	}
}

// Init initializes the logs tab.
func (m *Model) Init() tea.Cmd {
	return m.loadLogCmd()
}

func (m *Model) loadLogCmd() tea.Cmd {
	path := m.path
	return func() tea.Msg {
		if path == "" {
			return logLoadedMsg{}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return logLoadedMsg{err: err}
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) > tailLines {
			lines = lines[len(lines)-tailLines:]
		}
		return logLoadedMsg{lines: lines}
	}
}

// Update handles messages for the logs tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case logLoadedMsg:
		m.lines = msg.lines
		m.loadErr = msg.err
		m.loadedAt = time.Now()
		if m.follow {
			m.viewport.GotoBottom()
		}

	case app.TickMsg:
		if m.follow {
			cmds = append(cmds, m.loadLogCmd())
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabLogs {
			cmds = append(cmds, m.loadLogCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadLogCmd()

	case key.Matches(msg, m.keys.Follow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}

	case key.Matches(msg, m.keys.Top):
		m.follow = false
		m.viewport.GotoTop()

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetSize sets the available size for the logs tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-4, 3)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Follow, m.keys.Refresh}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Follow, m.keys.Refresh},
		{m.keys.Top, m.keys.Bottom},
	}
}
