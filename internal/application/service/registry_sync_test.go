package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
	"pricesync/internal/infrastructure/metrics"
)

func newTestSync(p *stubListings, cache *memCache, cold port.ColdStore, clock *fakeClock) *RegistrySync {
	s := NewRegistrySync(p, cache, cold, metrics.New(), discardLogger())
	s.now = clock.Now
	return s
}

func TestMergeKeepsFirstSeenAt(t *testing.T) {
	existing := BuildRegistry("stub", []model.AssetMetadata{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", LogoURL: "https://img/btc.png", MarketCapRank: 1},
	}, t0)

	now := t0.Add(24 * time.Hour)
	fresh := BuildRegistry("stub", []model.AssetMetadata{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapRank: 1},
	}, now)

	merged := MergeRegistry(existing, fresh, now)

	btc := merged.Entries["bitcoin"]
	assert.Equal(t, t0, btc.FirstSeenAt)
	assert.Equal(t, now, btc.LastSeenAt)
	assert.Equal(t, "https://img/btc.png", btc.LogoURL)
	assert.Equal(t, t0, existing.Entries["bitcoin"].LastSeenAt, "existing registry must not be mutated")
}

func TestMergeIsAppendOnly(t *testing.T) {
	existing := BuildRegistry("stub", []model.AssetMetadata{
		{ID: "bitcoin", Symbol: "BTC", MarketCapRank: 1},
		{ID: "terra-luna", Symbol: "LUNA", MarketCapRank: 9},
	}, t0)

	now := t0.Add(time.Hour)
	fresh := BuildRegistry("stub", []model.AssetMetadata{
		{ID: "bitcoin", Symbol: "BTC", MarketCapRank: 1},
		{ID: "wrapped-bitcoin", Symbol: "WBTC", MarketCapRank: 14},
		{ID: "batcoin", Symbol: "BTC", MarketCapRank: 0},
	}, now)

	merged := MergeRegistry(existing, fresh, now)

	for id, before := range existing.Entries {
		after, ok := merged.Entries[id]
		require.True(t, ok, "%s dropped", id)
		assert.Equal(t, before.FirstSeenAt, after.FirstSeenAt)
		assert.False(t, after.LastSeenAt.Before(before.LastSeenAt))
	}
	assert.Equal(t, 4, merged.Count)
	assert.Equal(t, []string{"bitcoin", "batcoin"}, merged.BySymbol["BTC"])
	assert.Equal(t, now, merged.Entries["wrapped-bitcoin"].FirstSeenAt)

	best, candidates, ok := merged.Resolve("BTC", model.LowestRank)
	require.True(t, ok)
	assert.Equal(t, "bitcoin", best.ID)
	assert.Len(t, candidates, 2)
}

func TestRegistrySyncMergesIntoColdStore(t *testing.T) {
	cold := newMemCold()
	cold.registry = BuildRegistry("stub", []model.AssetMetadata{{ID: "bitcoin", Symbol: "BTC", MarketCapRank: 1}}, t0)
	cache := &memCache{}
	clock := &fakeClock{t: t0.Add(24 * time.Hour)}
	p := &stubListings{listings: []model.AssetMetadata{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapRank: 1},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", MarketCapRank: 2},
	}}

	require.NoError(t, newTestSync(p, cache, cold, clock).Refresh(context.Background(), model.TriggerScheduled))

	require.NotNil(t, cold.registry)
	assert.Equal(t, 2, cold.registry.Count)
	assert.Equal(t, t0, cold.registry.Entries["bitcoin"].FirstSeenAt)
	assert.Equal(t, clock.Now(), cold.registry.Entries["bitcoin"].LastSeenAt)

	require.Len(t, cold.compositions, 1)
	assert.Equal(t, "2026-03-15", cold.compositions[0].Date)
	assert.Equal(t, 2, cold.compositions[0].Count)

	mirror, err := cache.GetRegistryMirror(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mirror.Count)
}

func TestRegistrySyncFallsBackToMirror(t *testing.T) {
	cache := &memCache{}
	require.NoError(t, cache.PutRegistryMirror(context.Background(),
		BuildRegistry("stub", []model.AssetMetadata{{ID: "bitcoin", Symbol: "BTC"}}, t0)))
	clock := &fakeClock{t: t0.Add(time.Hour)}
	p := &stubListings{listings: []model.AssetMetadata{{ID: "solana", Symbol: "SOL"}}}

	require.NoError(t, newTestSync(p, cache, nil, clock).Refresh(context.Background(), model.TriggerManual))

	mirror, err := cache.GetRegistryMirror(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mirror.Count)
	assert.Equal(t, t0, mirror.Entries["bitcoin"].FirstSeenAt)
}

func TestRegistrySyncFailuresLeaveRegistryUntouched(t *testing.T) {
	t.Run("fetch error", func(t *testing.T) {
		cold := newMemCold()
		cache := &memCache{}
		p := &stubListings{err: &model.ProviderError{Provider: "stub-meta", Op: "fetch listings", StatusCode: 500}}

		err := newTestSync(p, cache, cold, &fakeClock{t: t0}).Refresh(context.Background(), model.TriggerScheduled)
		require.Error(t, err)
		assert.Zero(t, cold.writes)
		assert.Zero(t, cache.registryWrites)
	})

	t.Run("cold store unreadable and no mirror", func(t *testing.T) {
		cold := newMemCold()
		cold.getErr = errors.New("access denied")
		cache := &memCache{}
		p := &stubListings{listings: []model.AssetMetadata{{ID: "bitcoin", Symbol: "BTC"}}}

		err := newTestSync(p, cache, cold, &fakeClock{t: t0}).Refresh(context.Background(), model.TriggerScheduled)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
		assert.Zero(t, cold.writes)
		assert.Zero(t, cache.registryWrites)
	})

	t.Run("both tiers unreadable", func(t *testing.T) {
		cold := newMemCold()
		cold.getErr = errors.New("access denied")
		cache := &memCache{getErr: errors.New("connection refused")}
		p := &stubListings{listings: []model.AssetMetadata{{ID: "bitcoin", Symbol: "BTC"}}}

		err := newTestSync(p, cache, cold, &fakeClock{t: t0}).Refresh(context.Background(), model.TriggerScheduled)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
		assert.Contains(t, err.Error(), "connection refused")
		assert.Zero(t, cold.writes)
		assert.Zero(t, cache.registryWrites)
	})

	t.Run("empty listing", func(t *testing.T) {
		cold := newMemCold()
		cache := &memCache{}

		err := newTestSync(&stubListings{}, cache, cold, &fakeClock{t: t0}).Refresh(context.Background(), model.TriggerScheduled)
		var merr *model.MalformedResponseError
		require.ErrorAs(t, err, &merr)
		assert.Zero(t, cold.writes)
	})
}

func TestRegistrySyncFallsBackToMirrorWhenColdStoreUnreadable(t *testing.T) {
	cold := newMemCold()
	cold.getErr = errors.New("access denied")
	cache := &memCache{}
	require.NoError(t, cache.PutRegistryMirror(context.Background(),
		BuildRegistry("stub", []model.AssetMetadata{{ID: "bitcoin", Symbol: "BTC"}}, t0)))
	clock := &fakeClock{t: t0.Add(time.Hour)}
	p := &stubListings{listings: []model.AssetMetadata{{ID: "solana", Symbol: "SOL"}}}
	s := newTestSync(p, cache, cold, clock)

	load, err := s.loadExisting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RegistryFromMirrorAfterColdError, load.Kind)

	require.NoError(t, s.Refresh(context.Background(), model.TriggerScheduled))

	mirror, err := cache.GetRegistryMirror(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, mirror.Count)
	assert.Equal(t, t0, mirror.Entries["bitcoin"].FirstSeenAt)
	assert.Zero(t, cold.writes, "cold copy is not overwritten from a possibly stale mirror")
}

func TestRegistrySyncMirrorsWhenColdWriteFails(t *testing.T) {
	cold := newMemCold()
	cold.putErr = errors.New("bucket is read-only")
	cache := &memCache{}
	p := &stubListings{listings: []model.AssetMetadata{{ID: "bitcoin", Symbol: "BTC"}}}

	err := newTestSync(p, cache, cold, &fakeClock{t: t0}).Refresh(context.Background(), model.TriggerScheduled)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is read-only")

	assert.Equal(t, 1, cache.registryWrites)
	mirror, err := cache.GetRegistryMirror(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, mirror.Count)
	assert.Empty(t, cold.compositions)
}

func TestRegistryLoadKinds(t *testing.T) {
	cache := &memCache{}
	cold := newMemCold()
	s := newTestSync(&stubListings{}, cache, cold, &fakeClock{t: t0})

	load, err := s.loadExisting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RegistryEmpty, load.Kind)
	assert.Nil(t, load.Registry)

	require.NoError(t, cache.PutRegistryMirror(context.Background(), model.NewRegistry("stub")))
	load, err = s.loadExisting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RegistryFromMirror, load.Kind)

	cold.registry = model.NewRegistry("stub")
	load, err = s.loadExisting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RegistryFromColdStore, load.Kind)
	assert.Equal(t, "cold_store", load.Kind.String())
}
