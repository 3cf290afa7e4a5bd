package scheduler

import (
	"context"
	"time"

	"renewalwatch_backend/platform/config"
	"renewalwatch_backend/platform/logger"
)

// RunPeriodicScans enqueues a full risk scan on the configured interval,
// starting with one immediate scan so a fresh deployment does not wait a
// whole interval for its first statuses. Blocks until ctx is cancelled.
func RunPeriodicScans(ctx context.Context, cfg config.SchedulerConfig, client *Client, log *logger.Logger) {
	interval := cfg.GetRiskScanInterval()
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	enqueue := func() {
		if err := client.EnqueueRiskScanAll(ctx); err != nil {
			log.Error("enqueue risk scan failed", "error", err)
		}
	}

	enqueue()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			enqueue()
		}
	}
}

// StaleNotificationStore removes read notifications past retention.
type StaleNotificationStore interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunNotificationCleanup deletes read notifications older than the retention
// window once a day. Blocks until ctx is cancelled.
func RunNotificationCleanup(ctx context.Context, cfg config.NotificationConfig, store StaleNotificationStore, log *logger.Logger) {
	retention := cfg.GetReadNotificationRetention()
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	sweep := func() {
		removed, err := store.DeleteReadBefore(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			log.Error("notification cleanup failed", "error", err)
			return
		}
		if removed > 0 {
			log.Info("stale notifications removed", "count", removed)
		}
	}

	sweep()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
