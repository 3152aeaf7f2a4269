// Package quota provides the per-provider quota tab.
package quota

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
	"github.com/doowtsen/cpa-quota-dashboard/internal/quota"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
	"github.com/doowtsen/cpa-quota-dashboard/internal/ui/components"
)

// providerOrder fixes the pane order top to bottom.
var providerOrder = []models.ProviderKind{
	models.ProviderCodex,
	models.ProviderGeminiCLI,
	models.ProviderAntigravity,
}

// keyMap defines the key bindings specific to the quota tab.
type keyMap struct {
	NextProvider key.Binding
	PrevProvider key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	ToggleMode   key.Binding
	CycleView    key.Binding
	ToggleScope  key.Binding
	NextEntry    key.Binding
	PrevEntry    key.Binding
	FetchEntry   key.Binding
	RefreshPane  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextProvider: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next provider"),
		),
		PrevProvider: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev provider"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "]"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "["),
			key.WithHelp("p", "prev page"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "paged/all"),
		),
		CycleView: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "cycle view"),
		),
		ToggleScope: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scope"),
		),
		NextEntry: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next entry"),
		),
		PrevEntry: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev entry"),
		),
		FetchEntry: key.NewBinding(
			key.WithKeys("enter", "f"),
			key.WithHelp("f", "re-query entry"),
		),
		RefreshPane: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh provider"),
		),
	}
}

// Model represents the quota tab state.
type Model struct {
	state    *app.State
	manager  *services.Manager
	commands *app.Commands

	viewStates map[models.ProviderKind]*quota.ViewState

	focused       int
	selectedIndex int

	spinner        components.LoadingSpinner
	viewport       viewport.Model
	keys           keyMap
	width          int
	height         int
	animationFrame int
}

// New creates a new quota tab model.
func New(state *app.State, mgr *services.Manager) *Model {
	viewStates := make(map[models.ProviderKind]*quota.ViewState, len(providerOrder))
	for _, kind := range providerOrder {
		vs := quota.NewViewState(kind)
		viewStates[kind] = &vs
	}

	return &Model{
		state:      state,
		manager:    mgr,
		commands:   app.NewCommands(mgr),
		viewStates: viewStates,
		spinner:    components.NewSpinner("Querying quotas..."),
		viewport:   viewport.New(0, 0),
		keys:       defaultKeyMap(),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case app.TickMsg:
		m.animationFrame++

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) focusedKind() models.ProviderKind {
	return providerOrder[m.focused]
}

func (m *Model) focusedState() *quota.ViewState {
	return m.viewStates[m.focusedKind()]
}

func (m *Model) focusedEntries() []quota.Entry {
	if m.manager == nil {
		return nil
	}
	return m.manager.Quota().Store().Entries(m.focusedKind())
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	vs := m.focusedState()
	entries := m.focusedEntries()

	switch {
	case key.Matches(msg, m.keys.NextProvider):
		m.focused = (m.focused + 1) % len(providerOrder)
		m.selectedIndex = 0

	case key.Matches(msg, m.keys.PrevProvider):
		m.focused = (m.focused - 1 + len(providerOrder)) % len(providerOrder)
		m.selectedIndex = 0

	case key.Matches(msg, m.keys.NextPage):
		vs.NextPage(len(entries))
		m.selectedIndex = 0

	case key.Matches(msg, m.keys.PrevPage):
		vs.PrevPage(len(entries))
		m.selectedIndex = 0

	case key.Matches(msg, m.keys.ToggleMode):
		if vs.Mode == quota.ModePaged {
			vs.SetMode(quota.ModeAll)
		} else {
			vs.SetMode(quota.ModePaged)
		}
		m.selectedIndex = 0

	case key.Matches(msg, m.keys.CycleView):
		vs.CycleView(m.focusedKind())

	case key.Matches(msg, m.keys.ToggleScope):
		if m.focusedKind() == models.ProviderAntigravity {
			vs.ToggleScope()
		}

	case key.Matches(msg, m.keys.NextEntry):
		visible, _ := vs.Slice(entries)
		if len(visible) > 0 {
			m.selectedIndex = (m.selectedIndex + 1) % len(visible)
		}

	case key.Matches(msg, m.keys.PrevEntry):
		visible, _ := vs.Slice(entries)
		if len(visible) > 0 {
			m.selectedIndex = (m.selectedIndex - 1 + len(visible)) % len(visible)
		}

	case key.Matches(msg, m.keys.FetchEntry):
		if e, ok := m.selectedAuthEntry(); ok {
			return m.commands.FetchEntry(e)
		}

	case key.Matches(msg, m.keys.RefreshPane):
		if m.manager != nil {
			return m.commands.RefreshProvider(m.focusedKind())
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// selectedAuthEntry maps the highlighted store entry back to its auth
// listing item so it can be re-queried.
func (m *Model) selectedAuthEntry() (models.AuthEntry, bool) {
	vs := m.focusedState()
	visible, _ := vs.Slice(m.focusedEntries())
	if m.selectedIndex < 0 || m.selectedIndex >= len(visible) {
		return models.AuthEntry{}, false
	}
	wantKey := visible[m.selectedIndex].Key

	for _, e := range m.state.GetEntries() {
		if e.Kind == m.focusedKind() && e.Key() == wantKey {
			return e, true
		}
	}
	return models.AuthEntry{}, false
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.NextProvider,
		m.keys.NextPage,
		m.keys.ToggleMode,
		m.keys.CycleView,
		m.keys.ToggleScope,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.NextProvider, m.keys.PrevProvider},
		{m.keys.NextPage, m.keys.PrevPage, m.keys.ToggleMode},
		{m.keys.CycleView, m.keys.ToggleScope},
		{m.keys.NextEntry, m.keys.PrevEntry, m.keys.FetchEntry, m.keys.RefreshPane},
	}
}
