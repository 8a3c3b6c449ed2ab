// Package progress broadcasts the lifecycle of long-running activities
// (searches, volume refreshes) to connected WebSocket clients.
package progress

import (
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ActivityType identifies the type of activity being tracked.
type ActivityType string

const (
	ActivityTypeSearch        ActivityType = "search"
	ActivityTypeVolumeRefresh ActivityType = "volume-refresh"
)

// Status represents the current state of an activity.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Activity represents a trackable activity with progress.
type Activity struct {
	ID          string                 `json:"id"`
	Type        ActivityType           `json:"type"`
	Title       string                 `json:"title"`
	Subtitle    string                 `json:"subtitle"`
	Progress    int                    `json:"progress"` // 0-100, -1 for indeterminate
	Status      Status                 `json:"status"`
	StartedAt   time.Time              `json:"startedAt"`
	CompletedAt *time.Time             `json:"completedAt"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func (a *Activity) snapshot() Activity {
	c := *a
	c.Metadata = maps.Clone(a.Metadata)
	return c
}

// EventType identifies the type of progress event.
type EventType string

const (
	EventTypeStarted   EventType = "progress:started"
	EventTypeUpdate    EventType = "progress:update"
	EventTypeCompleted EventType = "progress:completed"
	EventTypeError     EventType = "progress:error"
	EventTypeCancelled EventType = "progress:cancelled"
)

// Broadcaster delivers events to clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// DefaultRetention is how long finished activities stay visible.
const DefaultRetention = 5 * time.Second

// Manager tracks and broadcasts progress for all activities.
type Manager struct {
	hub        Broadcaster
	activities map[string]*Activity
	retention  time.Duration
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewManager creates a new progress manager. hub may be nil.
func NewManager(hub Broadcaster, logger zerolog.Logger) *Manager {
	return &Manager{
		hub:        hub,
		activities: make(map[string]*Activity),
		retention:  DefaultRetention,
		logger:     logger.With().Str("component", "progress").Logger(),
	}
}

// Start begins tracking a new activity and returns its id.
func (m *Manager) Start(activityType ActivityType, title string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity := &Activity{
		ID:        uuid.NewString(),
		Type:      activityType,
		Title:     title,
		Subtitle:  "Starting...",
		Progress:  -1,
		Status:    StatusInProgress,
		StartedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
	}

	m.activities[activity.ID] = activity
	m.broadcast(EventTypeStarted, activity)

	m.logger.Debug().
		Str("id", activity.ID).
		Str("type", string(activityType)).
		Str("title", title).
		Msg("Activity started")

	return activity.ID
}

// Update changes an activity's subtitle and progress.
func (m *Manager) Update(id string, subtitle string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, exists := m.activities[id]
	if !exists || activity.Status != StatusInProgress {
		return
	}

	activity.Subtitle = subtitle
	activity.Progress = progress

	m.broadcast(EventTypeUpdate, activity)
}

// SetMetadata records key on the activity. It is sent with the next event.
func (m *Manager) SetMetadata(id string, key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if activity, exists := m.activities[id]; exists {
		activity.Metadata[key] = value
	}
}

// Complete marks an activity as completed.
func (m *Manager) Complete(id string, subtitle string) {
	m.finish(id, StatusCompleted, subtitle, EventTypeCompleted)
}

// Fail marks an activity as failed.
func (m *Manager) Fail(id string, errorMsg string) {
	m.finish(id, StatusFailed, errorMsg, EventTypeError)
}

// Cancel marks an activity as cancelled.
func (m *Manager) Cancel(id string) {
	m.finish(id, StatusCancelled, "Cancelled", EventTypeCancelled)
}

func (m *Manager) finish(id string, status Status, subtitle string, event EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, exists := m.activities[id]
	if !exists || activity.Status != StatusInProgress {
		return
	}

	now := time.Now()
	activity.Status = status
	activity.Subtitle = subtitle
	activity.CompletedAt = &now
	switch status {
	case StatusCompleted:
		activity.Progress = 100
	case StatusFailed:
		activity.Metadata["error"] = subtitle
	}

	m.broadcast(event, activity)

	// Keep finished activities around briefly for late pollers.
	time.AfterFunc(m.retention, func() {
		m.mu.Lock()
		delete(m.activities, id)
		m.mu.Unlock()
	})

	m.logger.Debug().
		Str("id", id).
		Str("title", activity.Title).
		Str("status", string(status)).
		Dur("elapsed", now.Sub(activity.StartedAt)).
		Msg("Activity finished")
}

// Get returns a copy of the activity with id.
func (m *Manager) Get(id string) (Activity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	activity, ok := m.activities[id]
	if !ok {
		return Activity{}, false
	}
	return activity.snapshot(), true
}

// List returns copies of the tracked activities, oldest first.
func (m *Manager) List() []Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Activity, 0, len(m.activities))
	for _, activity := range m.activities {
		result = append(result, activity.snapshot())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result
}

// broadcast sends an activity snapshot to all connected clients.
func (m *Manager) broadcast(eventType EventType, activity *Activity) {
	if m.hub == nil {
		return
	}

	if err := m.hub.Broadcast(string(eventType), activity.snapshot()); err != nil {
		m.logger.Debug().Err(err).Str("event", string(eventType)).Msg("Failed to broadcast progress")
	}
}
