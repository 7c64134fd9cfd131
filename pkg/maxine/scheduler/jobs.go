package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/maxinebot/maxine/pkg/maxine/media"
)

// Job IDs.
const (
	JobPresence = "presence"
	JobSweep    = "media-sweep"
)

// StatusRefresher updates the bot's custom status.
type StatusRefresher interface {
	RefreshStatus() error
}

// PresenceJob keeps the guild count in the custom status current.
func PresenceJob(schedule string, r StatusRefresher) *Job {
	return &Job{
		ID:       JobPresence,
		Schedule: schedule,
		Run: func(context.Context) error {
			return r.RefreshStatus()
		},
	}
}

// SweepJob removes save work directories older than maxAge from dir. They
// are normally removed when a save finishes; the sweep catches leftovers
// from crashes.
func SweepJob(schedule, dir string, maxAge time.Duration, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{
		ID:         JobSweep,
		Schedule:   schedule,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := media.Sweep(dir, maxAge)
			if n > 0 {
				logger.Info("removed stale media files", "count", n, "dir", dir)
			}
			return err
		},
	}
}
