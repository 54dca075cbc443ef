package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
	"pricesync/internal/infrastructure/metrics"
)

// SnapshotWriter archives the current price set to the cold store under
// today's UTC date.
type SnapshotWriter struct {
	cache   port.HotCache
	cold    port.ColdStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewSnapshotWriter builds the writer. cold may be nil, in which case every
// Write fails with model.ErrStorageUnavailable.
func NewSnapshotWriter(cache port.HotCache, cold port.ColdStore, m *metrics.Metrics, logger *slog.Logger) *SnapshotWriter {
	return &SnapshotWriter{
		cache:   cache,
		cold:    cold,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (w *SnapshotWriter) Write(ctx context.Context, trigger model.Trigger) error {
	now := w.now().UTC()

	if w.cold == nil {
		if err := w.recordUnavailable(ctx, trigger, now); err != nil {
			return errors.Join(model.ErrStorageUnavailable, err)
		}
		return model.ErrStorageUnavailable
	}

	blob, err := w.cache.GetPriceBlob(ctx)
	if err != nil {
		return fmt.Errorf("failed to read price blob: %w", err)
	}
	if !blob.HasData() {
		w.logger.Warn("no price data to archive", "trigger", trigger)
		return nil
	}

	snap := &model.DailySnapshot{
		Date:       now.Format(model.DateLayout),
		Source:     blob.Source,
		SnapshotAt: now,
		Count:      len(blob.Prices),
		Prices:     blob.Prices,
	}
	if blob.UpdatedAt != nil {
		snap.UpdatedAt = *blob.UpdatedAt
	}

	if err := w.cold.PutDailySnapshot(ctx, snap); err != nil {
		return fmt.Errorf("failed to write daily snapshot: %w", err)
	}
	w.metrics.ColdStoreWrites.WithLabelValues("daily_snapshot").Inc()

	w.logger.Info("daily snapshot written", "trigger", trigger, "date", snap.Date, "count", snap.Count)
	return nil
}

// recordUnavailable flags the missing cold tier in the status blob so that
// readers of the status see why the daily run failed.
func (w *SnapshotWriter) recordUnavailable(ctx context.Context, trigger model.Trigger, now time.Time) error {
	prev, err := w.cache.GetPriceBlob(ctx)
	if err != nil {
		return fmt.Errorf("failed to read price blob: %w", err)
	}
	if err := putPriceBlob(ctx, w.cache, w.metrics, failedBlob(prev, trigger, now, model.ErrStorageUnavailable)); err != nil {
		return fmt.Errorf("failed to record snapshot failure: %w", err)
	}
	w.logger.Error("daily snapshot impossible", "trigger", trigger, "error", model.ErrStorageUnavailable)
	return nil
}
