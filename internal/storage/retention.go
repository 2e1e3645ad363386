package storage

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes journal rows created before a cutoff.
type Purger interface {
	PurgeOldData(ctx context.Context, before time.Time) (int64, error)
}

// RetentionWorker drops validation results older than the retention window
// on a fixed period.
type RetentionWorker struct {
	store  Purger
	window time.Duration
	period time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRetentionWorker(store Purger, retentionDays int, period time.Duration, logger *slog.Logger) *RetentionWorker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RetentionWorker{
		store:  store,
		window: time.Duration(retentionDays) * 24 * time.Hour,
		period: period,
		logger: logger,
		now:    time.Now,
	}
}

// Run purges once immediately, then every period until ctx is done.
func (w *RetentionWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge pass and reports how many rows went.
func (w *RetentionWorker) RunOnce(ctx context.Context) (int64, error) {
	before := w.now().Add(-w.window)
	deleted, err := w.store.PurgeOldData(ctx, before)
	if err != nil {
		w.logger.Error("retention purge failed", "error", err)
		return 0, err
	}
	if deleted > 0 {
		w.logger.Info("retention purge completed", "deleted", deleted, "before", before.Format(time.RFC3339))
	}
	return deleted, nil
}
