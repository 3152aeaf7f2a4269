package history

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/app"
	"github.com/doowtsen/cpa-quota-dashboard/internal/db"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
)

func TestNew(t *testing.T) {
	m := New(app.NewState(), nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.timeRange != models.TimeRange7Days {
		t.Error("default time range should be 7 days")
	}
}

func TestModel_Init(t *testing.T) {
	m := New(app.NewState(), nil)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
	if !m.loading {
		t.Error("Init should mark the tab loading")
	}
}

func TestModel_LoadError(t *testing.T) {
	m := New(app.NewState(), nil)

	msg := m.loadHistoryCmd()()
	errMsg, ok := msg.(historyErrorMsg)
	if !ok {
		t.Fatalf("expected historyErrorMsg with nil services, got %T", msg)
	}
	if errMsg.err == "" {
		t.Error("error message should not be empty")
	}
}

func TestModel_LoadedAndView(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(100, 40)
	m.loading = true

	now := time.Now()
	m.Update(historyLoadedMsg{
		pairs: []db.TrackedPair{
			{Provider: "codex", Key: "codex-a.json"},
			{Provider: "gemini", Key: "gemini-b.json"},
		},
		points: []models.SeriesPoint{
			{Timestamp: now.Add(-2 * time.Hour), RemainingPercent: 80},
			{Timestamp: now, RemainingPercent: 60},
		},
	})

	if m.loading {
		t.Error("loading should be cleared after data arrives")
	}

	view := m.View()
	if !strings.Contains(view, "codex-a.json") {
		t.Error("view should list the tracked series")
	}
	if !strings.Contains(view, "Remaining Quota") {
		t.Error("view should render the chart card")
	}
	if !strings.Contains(view, "Depleting") {
		t.Error("a falling series should show a depletion estimate")
	}
}

func TestModel_ViewEmpty(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(80, 24)
	m.Update(historyLoadedMsg{})

	view := m.View()
	if !strings.Contains(view, "No historical data") {
		t.Error("empty history should show the hint")
	}
}

func TestModel_ToggleRange(t *testing.T) {
	m := New(app.NewState(), nil)
	m.loading = false

	_, cmd := m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	if m.timeRange != models.TimeRange30Days {
		t.Errorf("time range = %v, want 30 days", m.timeRange)
	}
	if cmd == nil {
		t.Error("toggling the range should reload")
	}
}

func TestModel_SeriesNavigation(t *testing.T) {
	m := New(app.NewState(), nil)
	m.pairs = []db.TrackedPair{
		{Provider: "codex", Key: "a"},
		{Provider: "gemini", Key: "b"},
	}

	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}
	m.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.selected != 0 {
		t.Errorf("selected should wrap to 0, got %d", m.selected)
	}
}

func TestEstimateDepletion(t *testing.T) {
	now := time.Now()

	// Falling 10%/hr from 50%: depletes in 5 hours
	est := estimateDepletion([]models.SeriesPoint{
		{Timestamp: now.Add(-time.Hour), RemainingPercent: 60},
		{Timestamp: now, RemainingPercent: 50},
	})
	if !est.Valid {
		t.Fatal("falling series should yield a valid estimate")
	}
	if est.RatePerHour != 10 {
		t.Errorf("RatePerHour = %v, want 10", est.RatePerHour)
	}
	wantAt := now.Add(5 * time.Hour)
	if est.DepleteAt.Sub(wantAt) > time.Second || wantAt.Sub(est.DepleteAt) > time.Second {
		t.Errorf("DepleteAt = %v, want ~%v", est.DepleteAt, wantAt)
	}

	// Rising series: no depletion
	est = estimateDepletion([]models.SeriesPoint{
		{Timestamp: now.Add(-time.Hour), RemainingPercent: 40},
		{Timestamp: now, RemainingPercent: 60},
	})
	if est.Valid {
		t.Error("rising series should not be valid")
	}
	if est.RatePerHour >= 0 {
		t.Error("rising series should report a negative rate")
	}

	// Too few points
	if estimateDepletion(nil).Valid {
		t.Error("empty series should not be valid")
	}
}

func TestModel_Help(t *testing.T) {
	m := New(app.NewState(), nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
