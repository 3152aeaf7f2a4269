// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"

	"github.com/doowtsen/cpa-quota-dashboard/internal/config"
	"github.com/doowtsen/cpa-quota-dashboard/internal/cpa"
	"github.com/doowtsen/cpa-quota-dashboard/internal/db"
	"github.com/doowtsen/cpa-quota-dashboard/internal/logger"
	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
	"github.com/doowtsen/cpa-quota-dashboard/internal/quota"
)

type (
	// AuthListChangedEvent is emitted when the auth-file listing changes.
	AuthListChangedEvent struct {
		Entries []models.AuthEntry
	}

	// QuotaUpdatedEvent is emitted when stored quota results change.
	QuotaUpdatedEvent struct {
		Failed int
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (AuthListChangedEvent) isServiceEvent() {}
func (QuotaUpdatedEvent) isServiceEvent()    {}
func (ErrorEvent) isServiceEvent()           {}

// lowQuotaThreshold is the remaining percent below which a desktop
// notification fires, once per entry until it recovers.
const lowQuotaThreshold = 10.0

// Manager orchestrates the management client, the quota engine, snapshot
// persistence, and event routing.
type Manager struct {
	mu          sync.RWMutex
	client      *cpa.Client
	quota       *quota.Service
	database    *db.DB
	watcher     *fsnotify.Watcher
	cfg         *config.Config
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	notifyMu sync.Mutex
	notified map[string]bool
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		stopChan: make(chan struct{}),
		notified: make(map[string]bool),
	}

	m.client = cpa.New(cfg.BaseURL, cfg.ManagementKey)
	m.quota = quota.NewService(m.client)

	var err error
	m.database, err = db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.AuthDir != "" {
		if err := m.startAuthWatcher(cfg.AuthDir); err != nil {
			// A missing credential directory is not fatal; the listing
			// still refreshes on the timer.
			logger.Warn("auth dir watch unavailable", "dir", cfg.AuthDir, "error", err)
		}
	}

	go m.refreshLoop()

	return m, nil
}

// startAuthWatcher watches the service's credential directory so externally
// added or edited auth files show up without waiting for the next poll.
func (m *Manager) startAuthWatcher(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}
	m.watcher = watcher

	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				// Editors fire bursts of events per save; coalesce them.
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					m.reloadAuthList()
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("auth dir watch error", "error", err)

			case <-m.stopChan:
				return
			}
		}
	}()

	return nil
}

// reloadAuthList refreshes the listing from the management API and
// broadcasts the result.
func (m *Manager) reloadAuthList() {
	ctx, cancel := context.WithTimeout(context.Background(), quota.RequestTimeout)
	defer cancel()

	entries, err := m.quota.RefreshAuthList(ctx)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "auth", Error: err})
		return
	}
	m.broadcast(AuthListChangedEvent{Entries: entries})
}

// refreshLoop periodically re-queries all quotas.
func (m *Manager) refreshLoop() {
	interval := m.cfg.QuotaRefreshInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.RefreshAll(context.Background())
		case <-m.stopChan:
			return
		}
	}
}

// RefreshAll clears stored results and re-queries every entry, then records
// history snapshots and fires low-quota notifications.
func (m *Manager) RefreshAll(ctx context.Context) {
	failed, err := m.quota.RefreshAll(ctx)
	if err != nil {
		m.broadcast(ErrorEvent{Service: "quota", Error: err})
		return
	}
	m.recordSnapshots()
	m.checkNotifications()
	m.broadcast(QuotaUpdatedEvent{Failed: failed})
}

// FetchEntry re-queries a single entry and reports the fetch error so the
// UI can surface it.
func (m *Manager) FetchEntry(ctx context.Context, e models.AuthEntry) error {
	err := m.quota.FetchEntry(ctx, e)
	if err != nil {
		logger.Warn("entry fetch failed", "key", e.Key(), "error", err)
	}
	m.recordSnapshots()
	m.broadcast(QuotaUpdatedEvent{})
	return err
}

// RefreshProvider re-queries all entries of one provider.
func (m *Manager) RefreshProvider(ctx context.Context, kind models.ProviderKind) {
	failed := m.quota.RefreshProvider(ctx, kind)
	m.recordSnapshots()
	m.broadcast(QuotaUpdatedEvent{Failed: failed})
}

// ReloadAuthList refreshes the auth listing on demand.
func (m *Manager) ReloadAuthList() {
	m.reloadAuthList()
}

// recordSnapshots persists one remaining-percent reading per stored result.
func (m *Manager) recordSnapshots() {
	if m.database == nil {
		return
	}
	now := time.Now()
	for _, kind := range []models.ProviderKind{models.ProviderCodex, models.ProviderGeminiCLI, models.ProviderAntigravity} {
		for _, entry := range m.quota.Store().Entries(kind) {
			percent, ok := remainingPercent(entry.Result.Parsed)
			if !ok {
				continue
			}
			snapshot := models.QuotaSnapshot{
				Timestamp:        now,
				Provider:         kind.String(),
				Key:              entry.Key,
				RemainingPercent: percent,
			}
			if err := m.database.InsertQuotaSnapshot(&snapshot); err != nil {
				logger.Warn("snapshot insert failed", "key", entry.Key, "error", err)
			}
		}
	}
}

// remainingPercent reduces a parsed summary to a single remaining-percent
// reading: the tightest window or bucket the provider reports.
func remainingPercent(s models.Summary) (float64, bool) {
	min := 0.0
	found := false
	observe := func(v float64) {
		if !found || v < min {
			min = v
		}
		found = true
	}

	switch p := s.(type) {
	case *models.CodexUsage:
		for _, w := range p.Windows {
			if w.RemainingPercent != nil {
				observe(float64(*w.RemainingPercent))
			}
		}
	case *models.GeminiQuota:
		for _, b := range p.Buckets {
			if b.RemainingFraction != nil {
				observe(*b.RemainingFraction * 100)
			}
		}
	case *models.AntigravityModels:
		for _, g := range p.Groups {
			for _, item := range g.Items {
				if item.RemainingFraction != nil {
					observe(*item.RemainingFraction * 100)
				}
			}
		}
	}
	return min, found
}

// checkNotifications fires a desktop notification for entries that dropped
// below the threshold, once per episode.
func (m *Manager) checkNotifications() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	for _, kind := range []models.ProviderKind{models.ProviderCodex, models.ProviderGeminiCLI, models.ProviderAntigravity} {
		for _, entry := range m.quota.Store().Entries(kind) {
			percent, ok := remainingPercent(entry.Result.Parsed)
			if !ok {
				continue
			}
			id := kind.String() + "/" + entry.Key
			if percent < lowQuotaThreshold {
				if !m.notified[id] {
					m.notified[id] = true
					title := fmt.Sprintf("Low Quota: %s", entry.Key)
					body := fmt.Sprintf("%s remaining quota is below %.0f%% (%.1f%%)", kind.Title(), lowQuotaThreshold, percent)
					_ = beeep.Notify(title, body, "")
				}
			} else {
				delete(m.notified, id)
			}
		}
	}
}

// broadcast sends an event to all subscribers. A full subscriber channel
// drops the event rather than blocking a service goroutine.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Quota returns the quota service.
func (m *Manager) Quota() *quota.Service {
	return m.quota
}

// Client returns the management API client.
func (m *Manager) Client() *cpa.Client {
	return m.client
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Config returns the loaded configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// GetConfigYAML fetches the service configuration through the management API.
func (m *Manager) GetConfigYAML(ctx context.Context) (string, error) {
	return m.client.GetConfigYAML(ctx)
}

// SaveConfigYAML writes the service configuration through the management API.
func (m *Manager) SaveConfigYAML(ctx context.Context, content string) error {
	return m.client.SaveConfigYAML(ctx, content)
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	close(m.stopChan)

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
