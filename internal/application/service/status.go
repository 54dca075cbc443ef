package service

import (
	"context"
	"time"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
	"pricesync/internal/infrastructure/metrics"
)

// failedBlob carries the previous price data over unchanged and marks the
// fetch as failed. lastSuccessAt is never touched here.
func failedBlob(prev *model.PriceSnapshotBlob, trigger model.Trigger, now time.Time, cause error) *model.PriceSnapshotBlob {
	blob := &model.PriceSnapshotBlob{Prices: model.PriceSet{}}
	if prev != nil {
		blob.Source = prev.Source
		blob.UpdatedAt = prev.UpdatedAt
		blob.Count = prev.Count
		blob.Hash = prev.Hash
		if prev.Prices != nil {
			blob.Prices = prev.Prices
		}
		blob.Status.LastSuccessAt = prev.Status.LastSuccessAt
	}
	blob.Status.LastFetchOK = false
	blob.Status.LastError = cause.Error()
	blob.Status.LastFetchAt = &now
	blob.Status.Trigger = trigger
	return blob
}

// laterOf keeps lastSuccessAt non-decreasing even if the clock steps back.
func laterOf(now time.Time, prev *time.Time) time.Time {
	if prev != nil && prev.After(now) {
		return *prev
	}
	return now
}

func putPriceBlob(ctx context.Context, cache port.HotCache, m *metrics.Metrics, blob *model.PriceSnapshotBlob) error {
	if err := cache.PutPriceBlob(ctx, blob); err != nil {
		return err
	}
	m.HotCacheWrites.WithLabelValues("prices").Inc()
	return nil
}
