package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu     sync.Mutex
	events []string
	last   Activity
}

func (h *recordingHub) Broadcast(msgType string, payload interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, msgType)
	if a, ok := payload.(Activity); ok {
		h.last = a
	}
	return nil
}

func (h *recordingHub) snapshot() ([]string, Activity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...), h.last
}

func TestManager_Lifecycle(t *testing.T) {
	hub := &recordingHub{}
	m := NewManager(hub, zerolog.Nop())

	id := m.Start(ActivityTypeSearch, "Searching for report")
	require.NotEmpty(t, id)

	m.Update(id, "Searching /home", 50)
	m.SetMetadata(id, "matches", 3)
	m.Complete(id, "3 matches")

	// Finished activities ignore further transitions.
	m.Fail(id, "late failure")

	events, last := hub.snapshot()
	assert.Equal(t, []string{"progress:started", "progress:update", "progress:completed"}, events)
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, 3, last.Metadata["matches"])
	assert.NotNil(t, last.CompletedAt)

	a, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, ActivityTypeSearch, a.Type)
}

func TestManager_FailAndCancel(t *testing.T) {
	hub := &recordingHub{}
	m := NewManager(hub, zerolog.Nop())

	failed := m.Start(ActivityTypeVolumeRefresh, "Refreshing volumes")
	m.Fail(failed, "boom")
	a, ok := m.Get(failed)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, a.Status)
	assert.Equal(t, "boom", a.Metadata["error"])

	cancelled := m.Start(ActivityTypeSearch, "Searching")
	m.Cancel(cancelled)

	events, _ := hub.snapshot()
	assert.Contains(t, events, "progress:error")
	assert.Contains(t, events, "progress:cancelled")
	assert.Len(t, m.List(), 2)
}

func TestManager_Retention(t *testing.T) {
	m := NewManager(nil, zerolog.Nop())
	m.retention = 10 * time.Millisecond

	id := m.Start(ActivityTypeSearch, "Searching")
	m.Complete(id, "done")

	assert.Eventually(t, func() bool {
		_, ok := m.Get(id)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestManager_UnknownID(t *testing.T) {
	m := NewManager(nil, zerolog.Nop())
	m.Update("missing", "x", 1)
	m.Complete("missing", "x")
	_, ok := m.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, m.List())
}
