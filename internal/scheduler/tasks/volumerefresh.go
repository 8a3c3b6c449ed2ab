// Package tasks registers the background tasks run by the scheduler.
package tasks

import (
	"context"
	"fmt"

	"github.com/diskseek/diskseek/internal/progress"
	"github.com/diskseek/diskseek/internal/scheduler"
	"github.com/diskseek/diskseek/internal/volume"
)

// VolumeRefreshTaskID identifies the volume snapshot task.
const VolumeRefreshTaskID = "volume-refresh"

// VolumesUpdatedEvent carries a fresh volume snapshot to clients.
const VolumesUpdatedEvent = "volumes:updated"

// VolumeLister is satisfied by *volume.Enumerator.
type VolumeLister interface {
	List() []volume.Info
}

// Broadcaster delivers events to clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// VolumeRefresh builds the task that enumerates volumes and broadcasts the
// snapshot. tracker may be nil.
func VolumeRefresh(volumes VolumeLister, hub Broadcaster, tracker *progress.Manager) scheduler.TaskFunc {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var id string
		if tracker != nil {
			id = tracker.Start(progress.ActivityTypeVolumeRefresh, "Refreshing volumes")
		}

		list := volumes.List()
		if err := hub.Broadcast(VolumesUpdatedEvent, list); err != nil {
			if tracker != nil {
				tracker.Fail(id, err.Error())
			}
			return fmt.Errorf("failed to broadcast volumes: %w", err)
		}

		if tracker != nil {
			tracker.Complete(id, fmt.Sprintf("%d volumes", len(list)))
		}
		return nil
	}
}

// RegisterVolumeRefreshTask schedules VolumeRefresh on cronExpr. An empty
// expression disables the task.
func RegisterVolumeRefreshTask(sched *scheduler.Scheduler, cronExpr string, volumes VolumeLister, hub Broadcaster, tracker *progress.Manager) error {
	if cronExpr == "" {
		return nil
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          VolumeRefreshTaskID,
		Name:        "Volume Refresh",
		Description: "Enumerates mounted volumes and pushes the snapshot to connected clients",
		Cron:        cronExpr,
		RunOnStart:  false,
		Func:        VolumeRefresh(volumes, hub, tracker),
	})
}
