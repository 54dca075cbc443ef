package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
)

var (
	ErrNotYetFetched       = errors.New("price data has not been fetched yet")
	ErrRegistryUnavailable = errors.New("registry is not available")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
)

// ReadUseCase serves the read paths: Tier 1 first, Tier 2 on a miss where
// the data lives there too. Reads never write back.
type ReadUseCase struct {
	cache      port.HotCache
	cold       port.ColdStore
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewReadUseCase builds the read side. cold may be nil.
func NewReadUseCase(cache port.HotCache, cold port.ColdStore, staleAfter time.Duration, logger *slog.Logger) *ReadUseCase {
	return &ReadUseCase{
		cache:      cache,
		cold:       cold,
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// LatestPrices returns the cached blob, including its status, even when the
// last fetch failed. ErrNotYetFetched means no fetch ever succeeded.
func (uc *ReadUseCase) LatestPrices(ctx context.Context) (*model.PriceSnapshotBlob, error) {
	blob, err := uc.cache.GetPriceBlob(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read price blob: %w", err)
	}
	if !blob.HasData() {
		return nil, ErrNotYetFetched
	}
	return blob, nil
}

// Status projects the fetch status stored inside the price blob. It never
// fails: a missing or unreadable blob yields a stale "not yet fetched" view.
func (uc *ReadUseCase) Status(ctx context.Context) model.StatusView {
	blob, err := uc.cache.GetPriceBlob(ctx)
	if err != nil {
		uc.logger.Warn("status read failed", "error", err)
		return model.StatusView{
			FetchStatus: model.FetchStatus{LastError: "hot cache unavailable"},
			Stale:       true,
		}
	}
	if blob == nil {
		return model.StatusView{
			FetchStatus: model.FetchStatus{LastError: ErrNotYetFetched.Error()},
			Stale:       true,
		}
	}

	view := model.StatusView{
		FetchStatus: blob.Status,
		Source:      blob.Source,
		Count:       blob.Count,
	}
	last := blob.Status.LastSuccessAt
	view.Stale = last == nil || uc.now().Sub(*last) > uc.staleAfter
	return view
}

// Registry reads the mirror and falls back to the cold store.
func (uc *ReadUseCase) Registry(ctx context.Context) (*model.Registry, error) {
	reg, err := uc.cache.GetRegistryMirror(ctx)
	if err != nil {
		uc.logger.Warn("registry mirror read failed, trying cold store", "error", err)
	}
	if reg != nil {
		return reg, nil
	}

	if uc.cold == nil {
		return nil, ErrRegistryUnavailable
	}
	reg, err = uc.cold.GetRegistry(ctx)
	if err != nil {
		uc.logger.Warn("cold store registry read failed", "error", err)
		return nil, ErrRegistryUnavailable
	}
	if reg == nil {
		return nil, ErrRegistryUnavailable
	}
	return reg, nil
}

// Snapshot returns the archived prices for date, or nil if none exists.
func (uc *ReadUseCase) Snapshot(ctx context.Context, date string) (*model.DailySnapshot, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, ErrInvalidDate
	}
	if uc.cold == nil {
		return nil, model.ErrStorageUnavailable
	}
	snap, err := uc.cold.GetDailySnapshot(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", date, err)
	}
	return snap, nil
}

// Resolution is the registry's answer for one symbol.
type Resolution struct {
	Symbol     string                `json:"symbol"`
	Policy     string                `json:"policy"`
	Best       model.RegistryEntry   `json:"best"`
	Candidates []model.RegistryEntry `json:"candidates"`
}

// Resolve picks the registry entry for symbol preferring the lowest market
// cap rank. A nil result means the symbol is unknown.
func (uc *ReadUseCase) Resolve(ctx context.Context, symbol string) (*Resolution, error) {
	reg, err := uc.Registry(ctx)
	if err != nil {
		return nil, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	best, candidates, ok := reg.Resolve(symbol, model.LowestRank)
	if !ok {
		return nil, nil
	}
	return &Resolution{
		Symbol:     symbol,
		Policy:     model.LowestRank.String(),
		Best:       best,
		Candidates: candidates,
	}, nil
}

// TierHealth reports one storage tier.
type TierHealth struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
}

type HealthReport struct {
	Status    string     `json:"status"`
	Time      time.Time  `json:"time"`
	HotCache  TierHealth `json:"hotCache"`
	ColdStore TierHealth `json:"coldStore"`
}

// Health pings each configured tier. The process is live regardless, so
// Status is "ok" or "degraded", never an error.
func (uc *ReadUseCase) Health(ctx context.Context) HealthReport {
	report := HealthReport{Status: "ok", Time: uc.now().UTC()}

	report.HotCache = TierHealth{Configured: true, Reachable: true}
	if err := uc.cache.Ping(ctx); err != nil {
		report.HotCache.Reachable = false
		report.HotCache.Error = err.Error()
		report.Status = "degraded"
		uc.logger.Warn("hot cache health check failed", "error", err)
	}

	if uc.cold != nil {
		report.ColdStore = TierHealth{Configured: true, Reachable: true}
		if err := uc.cold.Ping(ctx); err != nil {
			report.ColdStore.Reachable = false
			report.ColdStore.Error = err.Error()
			report.Status = "degraded"
			uc.logger.Warn("cold store health check failed", "error", err)
		}
	}
	return report
}
