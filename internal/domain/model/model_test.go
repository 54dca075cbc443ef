package model

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolPolicyReplace(t *testing.T) {
	assert.False(t, FirstSeen.Replace(5, 1))
	assert.True(t, LowestRank.Replace(5, 1))
	assert.True(t, LowestRank.Replace(0, 7))
	assert.False(t, LowestRank.Replace(3, 0))
	assert.False(t, LowestRank.Replace(3, 3))
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry("coingecko")
	for _, e := range []RegistryEntry{
		{ID: "usd-coin-bridged", Symbol: "USDC", MarketCapRank: 0},
		{ID: "usd-coin", Symbol: "USDC", MarketCapRank: 6},
		{ID: "usd-coin-wormhole", Symbol: "USDC", MarketCapRank: 900},
	} {
		reg.Entries[e.ID] = e
		reg.IndexSymbol(e.Symbol, e.ID)
	}
	reg.IndexSymbol("USDC", "usd-coin")

	best, candidates, ok := reg.Resolve("USDC", LowestRank)
	assert.True(t, ok)
	assert.Equal(t, "usd-coin", best.ID)
	assert.Len(t, candidates, 3)

	first, _, _ := reg.Resolve("USDC", FirstSeen)
	assert.Equal(t, "usd-coin-bridged", first.ID)

	_, _, ok = reg.Resolve("NOPE", LowestRank)
	assert.False(t, ok)
}

func TestProviderError(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &ProviderError{Provider: "coincap", Op: "fetch prices", Err: context.DeadlineExceeded})

	var perr *ProviderError
	assert.ErrorAs(t, err, &perr)
	assert.True(t, perr.Timeout())
	assert.False(t, perr.RateLimited())
	assert.Contains(t, err.Error(), "provider coincap: fetch prices")

	limited := &ProviderError{Provider: "coingecko", Op: "fetch listings", StatusCode: http.StatusTooManyRequests}
	assert.True(t, limited.RateLimited())
	assert.Equal(t, "provider coingecko: fetch listings: http 429", limited.Error())
}
