// Package config provides the config tab for viewing and editing the
// proxy service configuration over its management API.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
)

const requestTimeout = 15 * time.Second

// keyMap defines the key bindings specific to the config tab.
type keyMap struct {
	Reload key.Binding
	Edit   key.Binding
	Save   key.Binding
	Cancel key.Binding
	Search key.Binding
	Next   key.Binding
	Prev   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		Prev: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "prev match"),
		),
	}
}

// configLoadedMsg carries the fetched YAML document.
type configLoadedMsg struct {
	content string
}

// configSavedMsg is sent after a successful save.
type configSavedMsg struct{}

// configErrorMsg is sent when a management call fails.
type configErrorMsg struct {
	err string
}

// Model represents the config tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap

	viewport viewport.Model
	editor   textarea.Model
	search   textinput.Model

	content   string
	editing   bool
	searching bool
	loading   bool
	errorMsg  string
	yamlError string
	loadedAt  time.Time

	query    string
	matches  []int
	matchIdx int
}

// New creates a new config model.
func New(state *app.State, svc *services.Manager) *Model {
	editor := textarea.New()
	editor.CharLimit = 0

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"
	search.CharLimit = 64

	return &Model{
		state:    state,
		services: svc,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
		editor:   editor,
		search:   search,
	}
}

// Init initializes the config tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadConfigCmd()
}

func (m *Model) loadConfigCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services == nil {
			return configErrorMsg{err: "management client not available"}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		content, err := m.services.GetConfigYAML(ctx)
		if err != nil {
			return configErrorMsg{err: err.Error()}
		}
		return configLoadedMsg{content: content}
	}
}

func (m *Model) saveConfigCmd(content string) tea.Cmd {
	return func() tea.Msg {
		if m.services == nil {
			return configErrorMsg{err: "management client not available"}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := m.services.SaveConfigYAML(ctx, content); err != nil {
			return configErrorMsg{err: err.Error()}
		}
		return configSavedMsg{}
	}
}

// validateYAML checks that a document parses; the service itself rejects
// structurally invalid configs, this just fails faster.
func validateYAML(content string) error {
	var doc map[string]any
	return yaml.Unmarshal([]byte(content), &doc)
}

// Update handles messages for the config tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case configLoadedMsg:
		m.content = msg.content
		m.loading = false
		m.errorMsg = ""
		m.loadedAt = time.Now()
		if err := validateYAML(m.content); err != nil {
			m.yamlError = err.Error()
		} else {
			m.yamlError = ""
		}
		m.recomputeMatches()

	case configSavedMsg:
		m.editing = false
		m.loading = true
		cmds = append(cmds, m.loadConfigCmd())
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationSuccess,
				Message:  "Config saved",
				Duration: app.DefaultNotificationDuration,
			}
		})

	case configErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("Config error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if m.editing {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.editing = false
			m.editor.Blur()

		case key.Matches(msg, m.keys.Save):
			content := m.editor.Value()
			if err := validateYAML(content); err != nil {
				m.yamlError = err.Error()
				return m, func() tea.Msg {
					return app.AddNotificationMsg{
						Type:     app.NotificationError,
						Message:  fmt.Sprintf("Invalid YAML: %s", err),
						Duration: app.LongNotificationDuration,
					}
				}
			}
			m.yamlError = ""
			cmds = append(cmds, m.saveConfigCmd(content))

		default:
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if m.searching {
		switch msg.Type {
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.query = ""
			m.recomputeMatches()
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			cmds = append(cmds, cmd)
			m.query = m.search.Value()
			m.recomputeMatches()
			m.jumpToMatch()
		}
		return m, tea.Batch(cmds...)
	}

	switch {
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		cmds = append(cmds, m.loadConfigCmd())

	case key.Matches(msg, m.keys.Edit):
		if m.content != "" {
			m.editing = true
			m.editor.SetValue(m.content)
			m.resizeEditor()
			cmds = append(cmds, m.editor.Focus())
		}

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmds = append(cmds, m.search.Focus())

	case key.Matches(msg, m.keys.Next):
		m.cycleMatch(1)

	case key.Matches(msg, m.keys.Prev):
		m.cycleMatch(-1)

	case key.Matches(msg, m.keys.Cancel):
		if m.query != "" {
			m.search.SetValue("")
			m.query = ""
			m.recomputeMatches()
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// recomputeMatches rescans the loaded document for lines containing the
// query, case-insensitively. The current match index is clamped so a
// shrinking match set never points past the end.
func (m *Model) recomputeMatches() {
	m.matches = m.matches[:0]
	if m.query == "" || m.content == "" {
		m.matchIdx = 0
		return
	}
	needle := strings.ToLower(m.query)
	for i, line := range strings.Split(m.content, "\n") {
		if strings.Contains(strings.ToLower(line), needle) {
			m.matches = append(m.matches, i)
		}
	}
	if m.matchIdx >= len(m.matches) {
		m.matchIdx = 0
	}
}

// cycleMatch advances the current match by delta, wrapping at both ends.
func (m *Model) cycleMatch(delta int) {
	if len(m.matches) == 0 {
		return
	}
	m.matchIdx = (m.matchIdx + delta + len(m.matches)) % len(m.matches)
	m.jumpToMatch()
}

// jumpToMatch scrolls the viewport so the current match is roughly centered.
func (m *Model) jumpToMatch() {
	if len(m.matches) == 0 {
		return
	}
	line := m.matches[m.matchIdx] + lipgloss.Height(m.renderHeader()) + 1
	offset := line - m.viewport.Height/2
	if offset < 0 {
		offset = 0
	}
	m.viewport.SetYOffset(offset)
}

// SetSize sets the available size for the config tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.resizeEditor()
}

func (m *Model) resizeEditor() {
	m.editor.SetWidth(max(m.width-8, 20))
	m.editor.SetHeight(max(m.height-8, 5))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.Save, m.keys.Cancel}
	}
	return []key.Binding{m.keys.Edit, m.keys.Reload, m.keys.Search}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Edit, m.keys.Reload},
		{m.keys.Search, m.keys.Next, m.keys.Prev},
		{m.keys.Save, m.keys.Cancel},
	}
}
