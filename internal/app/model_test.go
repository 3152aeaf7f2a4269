package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabQuota {
		t.Error("Default tab should be Quota")
	}
	if len(model.tabs) != 5 {
		t.Errorf("Should have 5 tab placeholders, got %d", len(model.tabs))
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	cmd := model.Init()
	if cmd == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)
	msg := tea.WindowSizeMsg{Width: 100, Height: 50}

	newModel, _ := model.Update(msg)

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}

	if m.width != 100 {
		t.Errorf("Width = %d, want 100", m.width)
	}
	if m.height != 50 {
		t.Errorf("Height = %d, want 50", m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 100
	model.height = 50

	msg := TabSwitchMsg{Tab: TabHistory}
	newModel, _ := model.Update(msg)
	m := newModel.(*Model)

	if m.activeTab != TabHistory {
		t.Errorf("ActiveTab = %v, want History", m.activeTab)
	}

	for i, r := range []rune{'1', '2', '3', '4', '5'} {
		keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		model.handleKeyMsg(keyMsg)
		if model.activeTab != TabID(i) {
			t.Errorf("key %q: activeTab = %v, want %v", r, model.activeTab, TabID(i))
		}
	}

	// Next/prev wrap around
	model.activeTab = TabInfo
	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabQuota {
		t.Errorf("NextTab should wrap to Quota, got %v", model.activeTab)
	}
	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.activeTab != TabInfo {
		t.Errorf("PrevTab should wrap to Info, got %v", model.activeTab)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	msg := TickMsg{Time: time.Now()}

	_, cmd := model.Update(msg)
	if cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	// Not ready
	view := model.View()
	if !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	// Ready
	model.ready = true
	model.width = 80
	model.height = 24

	view = model.View()
	if !strings.Contains(view, "Quota") {
		t.Error("View should show Quota tab")
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text")
	}
}

func TestModel_Help(t *testing.T) {
	model := NewModel(nil)
	model.ready = true
	model.width = 80
	model.height = 24

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}

	view := model.View()
	if !strings.Contains(view, "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if model.showHelp {
		t.Error("showHelp should be false after toggle")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := NewModel(nil)

	msg := AddNotificationMsg{
		Message:  "Test Note",
		Type:     NotificationInfo,
		Duration: 0,
	}

	model.Update(msg)

	notifs := model.state.GetNotifications()
	if len(notifs) != 1 {
		t.Errorf("Expected 1 notification, got %d", len(notifs))
	}

	model.ready = true
	model.width = 80
	model.height = 24
	view := model.View()
	if !strings.Contains(view, "Test Note") {
		t.Error("View should show notification")
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := NewModel(nil)

	entries := []models.AuthEntry{{FileName: "codex.json", Provider: "codex", Kind: models.ProviderCodex}}
	cmd := model.handleServiceEvent(services.AuthListChangedEvent{Entries: entries})
	if cmd == nil {
		t.Error("Auth list change should trigger notification command")
	}
	if model.state.GetEntryCount() != 1 {
		t.Error("Entries should be updated")
	}

	cmd = model.handleServiceEvent(services.QuotaUpdatedEvent{Failed: 2})
	if cmd == nil {
		t.Error("Failed refresh should trigger warning command")
	}
	if model.state.GetFailedCount() != 2 {
		t.Error("FailedCount should be updated")
	}

	cmd = model.handleServiceEvent(services.QuotaUpdatedEvent{Failed: 0})
	if cmd == nil {
		t.Error("Clean refresh should still rebroadcast a refreshed message")
	}
	if msg := cmd(); msg == nil {
		t.Error("refreshed command should produce a message")
	} else if refreshed, ok := msg.(QuotaRefreshedMsg); !ok || refreshed.Failed != 0 {
		t.Errorf("expected QuotaRefreshedMsg with zero failures, got %#v", msg)
	}

	cmd = model.handleServiceEvent(services.ErrorEvent{Service: "quota", Error: errors.New("boom")})
	if cmd == nil {
		t.Error("Error event should trigger notification command")
	}
}

func TestModel_Update_Messages(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: "entries"})
	if !model.state.Loading.Entries {
		t.Error("Loading.Entries should be true")
	}

	model.Update(StopLoadingMsg{Resource: "entries"})
	if model.state.Loading.Entries {
		t.Error("Loading.Entries should be false")
	}

	entries := []models.AuthEntry{{FileName: "gemini.json", Provider: "gemini-cli", Kind: models.ProviderGeminiCLI}}
	model.Update(EntriesLoadedMsg{Entries: entries})
	if model.state.GetEntryCount() != 1 {
		t.Error("Entries should be updated")
	}
	if model.state.Loading.Initial {
		t.Error("Initial loading should be false")
	}

	model.Update(EntriesLoadedMsg{Error: errors.New("listing failed")})

	// services is nil, so RefreshMsg only covers the switch
	model.Update(RefreshMsg{Resource: "all"})
	model.Update(RefreshMsg{Resource: "entries"})
	model.Update(RefreshMsg{Resource: "quota"})

	model.Update(AddNotificationMsg{Message: "test", Type: NotificationInfo})
	model.Update(RemoveNotificationMsg{ID: "nonexistent"})
	model.Update(ClearExpiredNotificationsMsg{})
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	_, cmd := model.Update(spinner.TickMsg{})
	if cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := []struct {
		tab  TabID
		want string
	}{
		{TabQuota, "Quota"},
		{TabHistory, "History"},
		{TabConfig, "Config"},
		{TabLogs, "Logs"},
		{TabInfo, "Info"},
		{TabID(999), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.tab.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestDefaultStyles(t *testing.T) {
	s := DefaultStyles()
	_ = s
}

func TestModel_RefreshKey(t *testing.T) {
	model := NewModel(nil)

	cmd := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("r on the quota tab should trigger a refresh")
	}
	msg, ok := cmd().(RefreshMsg)
	if !ok || msg.Resource != "quota" {
		t.Errorf("expected RefreshMsg for quota, got %#v", msg)
	}

	model.activeTab = TabLogs
	if cmd := model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}); cmd != nil {
		t.Error("r on other tabs should be left to the tab")
	}
}

func TestModel_EntryFetched(t *testing.T) {
	model := NewModel(nil)

	_, cmd := model.Update(EntryFetchedMsg{Key: "codex.json", Err: errors.New("request failed (500)")})
	if cmd == nil {
		t.Fatal("failed fetch should produce a notification command")
	}
	notif, ok := cmd().(AddNotificationMsg)
	if !ok {
		t.Fatalf("expected AddNotificationMsg, got %#v", cmd())
	}
	if notif.Type != NotificationError {
		t.Errorf("notification type = %v, want error", notif.Type)
	}
	if !strings.Contains(notif.Message, "codex.json") {
		t.Errorf("notification should name the entry, got %q", notif.Message)
	}

	if _, cmd := model.Update(EntryFetchedMsg{Key: "codex.json"}); cmd != nil {
		t.Error("clean fetch should stay quiet")
	}
}

func TestModel_SwitchTabAnnounces(t *testing.T) {
	model := NewModel(nil)

	cmd := model.switchTab(TabConfig)
	if model.activeTab != TabConfig {
		t.Errorf("activeTab = %v, want Config", model.activeTab)
	}
	if cmd == nil {
		t.Fatal("switchTab should announce the switch")
	}
	if msg, ok := cmd().(TabSwitchMsg); !ok || msg.Tab != TabConfig {
		t.Errorf("expected TabSwitchMsg for Config, got %#v", msg)
	}
}
