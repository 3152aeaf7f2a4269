package app

import (
	"time"

	"github.com/doowtsen/cpa-quota-dashboard/internal/models"
	"github.com/doowtsen/cpa-quota-dashboard/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// EntriesLoadedMsg contains the refreshed auth-file listing.
type EntriesLoadedMsg struct {
	Entries []models.AuthEntry
	Error   error
}

// QuotaRefreshedMsg signals that a batch quota refresh finished.
type QuotaRefreshedMsg struct {
	Failed int
}

// EntryFetchedMsg signals that a single entry was re-queried. Err carries
// the fetch failure, if any, so it can surface as a notification.
type EntryFetchedMsg struct {
	Key string
	Err error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "entries", "quota"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}
