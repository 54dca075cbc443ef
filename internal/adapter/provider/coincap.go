package provider

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"pricesync/internal/domain/model"
	"pricesync/internal/domain/port"
)

// PriceClient fetches the ranked asset listing from a CoinCap-compatible
// API. No authentication is required.
type PriceClient struct {
	name    string
	client  *resty.Client
	timeout time.Duration
}

func NewPriceClient(name, baseURL string, timeout time.Duration) port.PriceProvider {
	return &PriceClient{
		name:    name,
		client:  newRestClient(baseURL, timeout),
		timeout: timeout,
	}
}

func (c *PriceClient) Name() string { return c.name }

// FetchPrices returns the decoded payload as-is; the caller normalizes it.
func (c *PriceClient) FetchPrices(ctx context.Context, limit int) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := c.client.R().SetQueryParam("limit", strconv.Itoa(limit))
	body, err := get(ctx, req, c.name, "fetch prices", "/assets")
	if err != nil {
		return nil, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &model.MalformedResponseError{Provider: c.name, Reason: "invalid JSON: " + err.Error()}
	}
	return payload, nil
}
