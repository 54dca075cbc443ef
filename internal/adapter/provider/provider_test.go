package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricesync/internal/domain/model"
)

func TestPriceClientFetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/assets", r.URL.Path)
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"symbol":"BTC","priceUsd":"65000"}],"timestamp":1}`)
	}))
	defer srv.Close()

	c := NewPriceClient("coincap", srv.URL, time.Second)
	payload, err := c.FetchPrices(context.Background(), 500)
	require.NoError(t, err)

	obj, ok := payload.(map[string]any)
	require.True(t, ok)
	assert.Len(t, obj["data"], 1)
}

func TestPriceClientErrors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewPriceClient("coincap", srv.URL, time.Second).FetchPrices(context.Background(), 10)
		var perr *model.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.True(t, perr.RateLimited())
		assert.Equal(t, 30*time.Second, perr.RetryAfter)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewPriceClient("coincap", srv.URL, 50*time.Millisecond).FetchPrices(context.Background(), 10)
		var perr *model.ProviderError
		require.ErrorAs(t, err, &perr)
		assert.True(t, perr.Timeout())
	})

	t.Run("invalid json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>maintenance</html>")
		}))
		defer srv.Close()

		_, err := NewPriceClient("coincap", srv.URL, time.Second).FetchPrices(context.Background(), 10)
		var merr *model.MalformedResponseError
		assert.ErrorAs(t, err, &merr)
	})
}

func TestMetadataClientFetchesPagesInOrder(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-cg-demo-api-key"))
		switch r.URL.Query().Get("page") {
		case "1":
			time.Sleep(20 * time.Millisecond)
			fmt.Fprint(w, `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png","market_cap_rank":1},
				{"id":"","symbol":"bad","name":"No ID"}]`)
		case "2":
			fmt.Fprint(w, `[{"id":"wrapped-bitcoin","symbol":"wbtc","name":"Wrapped Bitcoin","market_cap_rank":null}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	c := NewMetadataClient("coingecko", srv.URL, "key", 2, 250, time.Second)
	listings, err := c.FetchListings(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, calls.Load())
	require.Len(t, listings, 2)
	assert.Equal(t, model.AssetMetadata{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", LogoURL: "https://img/btc.png", MarketCapRank: 1}, listings[0])
	assert.Equal(t, "WBTC", listings[1].Symbol)
	assert.Equal(t, 0, listings[1].MarketCapRank)
}

func TestMetadataClientPageFailureFailsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewMetadataClient("coingecko", srv.URL, "", 2, 250, time.Second).FetchListings(context.Background())
	var perr *model.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
}

func TestSyntheticProvider(t *testing.T) {
	s := NewSynthetic("synthetic", []string{"BTC", "ETH", "SOL"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	payload, err := s.FetchPrices(context.Background(), 2)
	require.NoError(t, err)
	data := payload.(map[string]any)["data"].([]any)
	assert.Len(t, data, 2)

	listings, err := s.FetchListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.FetchPrices(ctx, 2)
	assert.True(t, errors.Is(err, context.Canceled))
}
