package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SweepResult reports what one sweep pass did.
type SweepResult struct {
	ExpiredCount int64 `json:"expiredCount"`
	DeletedCount int64 `json:"deletedCount"`
}

// RunExpirySweep demotes lapsed active attempts to expired and deletes
// expired/completed attempts that have been terminal for over 24 hours.
// Best-effort janitor: errors are logged and swallowed, never propagated.
// The just-in-time expiry check in the coordinator is the correctness
// guard; a missed sweep self-heals on the next tick.
func RunExpirySweep(ctx context.Context, store Store, logger *slog.Logger) SweepResult {
	var res SweepResult

	expired, err := store.SweepExpireAttempts(ctx)
	if err != nil {
		logger.Error("sweep: expiring attempts", "error", err)
	} else {
		res.ExpiredCount = expired
	}

	deleted, err := store.SweepDeleteAttempts(ctx)
	if err != nil {
		logger.Error("sweep: deleting attempts", "error", err)
	} else {
		res.DeletedCount = deleted
	}

	if res.ExpiredCount > 0 || res.DeletedCount > 0 {
		logger.Info("expiry sweep", "expired", res.ExpiredCount, "deleted", res.DeletedCount)
	}
	return res
}

// StartSweeper schedules RunExpirySweep at a fixed interval. The returned
// scheduler should be shut down on process exit.
func StartSweeper(ctx context.Context, store Store, logger *slog.Logger, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			RunExpirySweep(ctx, store, logger)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
