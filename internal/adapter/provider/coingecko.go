package provider

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
)

// MetadataClient fetches ranked market listings with logos from a
// CoinGecko-compatible /coins/markets endpoint.
type MetadataClient struct {
	name    string
	client  *resty.Client
	timeout time.Duration
	pages   int
	perPage int
}

type geckoMarket struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	MarketCapRank *int   `json:"market_cap_rank"`
}

func NewMetadataClient(name, baseURL, apiKey string, pages, perPage int, timeout time.Duration) port.MetadataProvider {
	client := newRestClient(baseURL, timeout)
	if apiKey != "" {
		client.SetHeader("x-cg-demo-api-key", apiKey)
	}
	return &MetadataClient{
		name:    name,
		client:  client,
		timeout: timeout,
		pages:   pages,
		perPage: perPage,
	}
}

func (c *MetadataClient) Name() string { return c.name }

// FetchListings fetches every page concurrently and returns the listings in
// page order. Any failed page fails the whole fetch.
func (c *MetadataClient) FetchListings(ctx context.Context) ([]model.AssetMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make([][]model.AssetMetadata, c.pages)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.pages; i++ {
		page := i + 1
		g.Go(func() error {
			listings, err := c.fetchPage(gctx, page)
			if err != nil {
				return err
			}
			results[page-1] = listings
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.AssetMetadata
	for _, page := range results {
		out = append(out, page...)
	}
	return out, nil
}

func (c *MetadataClient) fetchPage(ctx context.Context, page int) ([]model.AssetMetadata, error) {
	req := c.client.R().SetQueryParams(map[string]string{
		"vs_currency": "usd",
		"order":       "market_cap_desc",
		"per_page":    strconv.Itoa(c.perPage),
		"page":        strconv.Itoa(page),
		"sparkline":   "false",
	})
	body, err := get(ctx, req, c.name, "fetch listings page "+strconv.Itoa(page), "/coins/markets")
	if err != nil {
		return nil, err
	}

	var markets []geckoMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, &model.MalformedResponseError{
			Provider: c.name,
			Reason:   "page " + strconv.Itoa(page) + " is not a market list: " + err.Error(),
		}
	}

	out := make([]model.AssetMetadata, 0, len(markets))
	for _, m := range markets {
		if m.ID == "" || m.Symbol == "" {
			continue
		}
		rank := 0
		if m.MarketCapRank != nil {
			rank = *m.MarketCapRank
		}
		out = append(out, model.AssetMetadata{
			ID:            m.ID,
			Symbol:        strings.ToUpper(strings.TrimSpace(m.Symbol)),
			Name:          m.Name,
			LogoURL:       m.Image,
			MarketCapRank: rank,
		})
	}
	return out, nil
}
