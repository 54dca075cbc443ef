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

// PriceRefresher runs the fetch → normalize → hash → conditional write
// pipeline against the hot cache.
type PriceRefresher struct {
	provider   port.PriceProvider
	cache      port.HotCache
	normalizer *Normalizer
	limit      int
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewPriceRefresher(provider port.PriceProvider, cache port.HotCache, normalizer *Normalizer, limit int, m *metrics.Metrics, logger *slog.Logger) *PriceRefresher {
	return &PriceRefresher{
		provider:   provider,
		cache:      cache,
		normalizer: normalizer,
		limit:      limit,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Refresh fetches the latest prices and writes the combined blob unless the
// price set is unchanged. On a fetch failure the previous prices are kept,
// the failure is recorded in the blob and the fetch error is returned.
func (r *PriceRefresher) Refresh(ctx context.Context, trigger model.Trigger) error {
	prices, fetchErr := r.fetch(ctx)

	prev, err := r.cache.GetPriceBlob(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read previous price blob: %w", err)
		if fetchErr != nil {
			return errors.Join(fetchErr, err)
		}
		return err
	}

	now := r.now().UTC()

	if fetchErr != nil {
		r.logger.Warn("price fetch failed, keeping previous prices",
			"provider", r.provider.Name(),
			"trigger", trigger,
			"had_data", prev.HasData(),
			"error", fetchErr)
		if err := putPriceBlob(ctx, r.cache, r.metrics, failedBlob(prev, trigger, now, fetchErr)); err != nil {
			return errors.Join(fetchErr, fmt.Errorf("failed to record fetch failure: %w", err))
		}
		return fetchErr
	}

	hash, err := HashPrices(prices)
	if err != nil {
		return err
	}

	if prev != nil && prev.Status.LastFetchOK && prev.Hash == hash {
		r.metrics.SkippedWrites.Inc()
		r.logger.Info("prices unchanged, write skipped", "trigger", trigger, "count", len(prices), "hash", hash)
		return nil
	}

	var prevSuccess *time.Time
	if prev != nil {
		prevSuccess = prev.Status.LastSuccessAt
	}
	success := laterOf(now, prevSuccess)

	blob := &model.PriceSnapshotBlob{
		Source:    r.provider.Name(),
		UpdatedAt: &now,
		Count:     len(prices),
		Prices:    prices,
		Status: model.FetchStatus{
			LastFetchOK:   true,
			LastFetchAt:   &now,
			LastSuccessAt: &success,
			Trigger:       trigger,
		},
		Hash: hash,
	}
	if err := putPriceBlob(ctx, r.cache, r.metrics, blob); err != nil {
		return fmt.Errorf("failed to write price blob: %w", err)
	}

	r.logger.Info("prices refreshed", "trigger", trigger, "count", len(prices), "hash", hash)
	return nil
}

func (r *PriceRefresher) fetch(ctx context.Context) (model.PriceSet, error) {
	payload, err := r.provider.FetchPrices(ctx, r.limit)
	if err != nil {
		return nil, err
	}
	return r.normalizer.Normalize(r.provider.Name(), payload)
}
