// Package info provides the info tab showing configuration and build details.
package info

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	"github.com/doowtsen/cpa-quota-dashboard/internal/config"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
)

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// snapshotCountMsg carries the database snapshot count.
type snapshotCountMsg struct {
	count int
	ok    bool
}

// serviceVersionMsg carries the running CPA build version.
type serviceVersionMsg struct {
	version string
	err     error
}

// Model represents the info tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	snapshots      int
	snapshotsKnown bool
	serviceVersion string
}

// New creates a new info model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

func (m *Model) config() *config.Config {
	if m.services == nil {
		return nil
	}
	return m.services.Config()
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.countSnapshotsCmd(), m.serviceVersionCmd())
}

func (m *Model) serviceVersionCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services == nil || m.services.Client() == nil {
			return serviceVersionMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		v, err := m.services.Client().ServiceVersion(ctx)
		return serviceVersionMsg{version: v, err: err}
	}
}

func (m *Model) countSnapshotsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services == nil || m.services.Database() == nil {
			return snapshotCountMsg{}
		}
		count, err := m.services.Database().CountSnapshots()
		if err != nil {
			return snapshotCountMsg{}
		}
		return snapshotCountMsg{count: count, ok: true}
	}
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case snapshotCountMsg:
		m.snapshots = msg.count
		m.snapshotsKnown = msg.ok

	case serviceVersionMsg:
		if msg.err == nil {
			m.serviceVersion = msg.version
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabInfo {
			cmds = append(cmds, m.countSnapshotsCmd(), m.serviceVersionCmd())
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			cmds = append(cmds, m.countSnapshotsCmd(), m.serviceVersionCmd())
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Refresh},
		{m.keys.Up, m.keys.Down},
	}
}
