// Package history provides the history tab with remaining-quota trend charts.
package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	"github.com/doowtsen/cpa-quota-dashboard/internal/db"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
)

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Refresh     key.Binding
	NextSeries  key.Binding
	PrevSeries  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NextSeries: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next series"),
		),
		PrevSeries: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev series"),
		),
	}
}

// historyLoadedMsg carries a freshly loaded pair listing and series.
type historyLoadedMsg struct {
	pairs  []db.TrackedPair
	points []models.SeriesPoint
}

// historyErrorMsg is sent when loading history fails.
type historyErrorMsg struct {
	err string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   models.TimeRange
	pairs       []db.TrackedPair
	selected    int
	points      []models.SeriesPoint
	loading     bool
	lastRefresh time.Time
	errorMsg    string
}

// New creates a new history model.
func New(state *app.State, svc *services.Manager) *Model {
	return &Model{
		state:     state,
		services:  svc,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange7Days,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.loadHistoryCmd()
}

// loadHistoryCmd reloads the tracked-pair listing and the selected series.
func (m *Model) loadHistoryCmd() tea.Cmd {
	selected := m.selected
	timeRange := m.timeRange

	return func() tea.Msg {
		if m.services == nil || m.services.Database() == nil {
			return historyErrorMsg{err: "history database not available"}
		}
		database := m.services.Database()

		pairs, err := database.GetTrackedPairs()
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		if len(pairs) == 0 {
			return historyLoadedMsg{}
		}

		if selected >= len(pairs) {
			selected = 0
		}
		pair := pairs[selected]

		points, err := database.GetSeries(pair.Provider, pair.Key, timeRange)
		if err != nil {
			return historyErrorMsg{err: err.Error()}
		}
		return historyLoadedMsg{pairs: pairs, points: points}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.pairs = msg.pairs
		m.points = msg.points
		if m.selected >= len(m.pairs) {
			m.selected = 0
		}
		m.loading = false
		m.lastRefresh = time.Now()
		m.errorMsg = ""

	case historyErrorMsg:
		m.loading = false
		m.errorMsg = msg.err
		cmds = append(cmds, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		})

	case app.QuotaRefreshedMsg:
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case app.TabSwitchMsg:
		if msg.Tab == app.TabHistory && !m.loading {
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		cmds = append(cmds, m.loadHistoryCmd())

	case key.Matches(msg, m.keys.NextSeries):
		if len(m.pairs) > 0 {
			m.selected = (m.selected + 1) % len(m.pairs)
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	case key.Matches(msg, m.keys.PrevSeries):
		if len(m.pairs) > 0 {
			m.selected = (m.selected - 1 + len(m.pairs)) % len(m.pairs)
			m.loading = true
			cmds = append(cmds, m.loadHistoryCmd())
		}

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// estimateDepletion projects when a remaining-percent series reaches zero,
// linearly from the first and last points of the charted window.
func estimateDepletion(points []models.SeriesPoint) models.DepletionEstimate {
	if len(points) < 2 {
		return models.DepletionEstimate{}
	}

	first := points[0]
	last := points[len(points)-1]

	hours := last.Timestamp.Sub(first.Timestamp).Hours()
	if hours <= 0 {
		return models.DepletionEstimate{}
	}

	rate := (first.RemainingPercent - last.RemainingPercent) / hours
	if rate <= 0 {
		return models.DepletionEstimate{RatePerHour: rate}
	}

	hoursLeft := last.RemainingPercent / rate
	return models.DepletionEstimate{
		RatePerHour: rate,
		DepleteAt:   last.Timestamp.Add(time.Duration(hoursLeft * float64(time.Hour))),
		Valid:       true,
	}
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.NextSeries,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Refresh},
		{m.keys.NextSeries, m.keys.PrevSeries},
	}
}
