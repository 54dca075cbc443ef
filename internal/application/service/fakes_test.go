package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"pricesync/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memCache keeps values serialized so tests see exactly what a real
// key-value store would hold.
type memCache struct {
	mu             sync.Mutex
	price          []byte
	registry       []byte
	priceWrites    int
	registryWrites int
	getErr         error
}

func (c *memCache) GetPriceBlob(ctx context.Context) (*model.PriceSnapshotBlob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.price == nil {
		return nil, nil
	}
	var blob model.PriceSnapshotBlob
	if err := json.Unmarshal(c.price, &blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

func (c *memCache) PutPriceBlob(ctx context.Context, blob *model.PriceSnapshotBlob) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.price = data
	c.priceWrites++
	return nil
}

func (c *memCache) GetRegistryMirror(ctx context.Context) (*model.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.registry == nil {
		return nil, nil
	}
	var reg model.Registry
	if err := json.Unmarshal(c.registry, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (c *memCache) PutRegistryMirror(ctx context.Context, reg *model.Registry) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry = data
	c.registryWrites++
	return nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

// pricesJSON returns the raw serialized prices member of the stored blob.
func (c *memCache) pricesJSON() json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var raw struct {
		Prices json.RawMessage `json:"prices"`
	}
	if c.price == nil {
		return nil
	}
	if err := json.Unmarshal(c.price, &raw); err != nil {
		return nil
	}
	return raw.Prices
}

type memCold struct {
	mu           sync.Mutex
	registry     *model.Registry
	compositions []*model.RegistryComposition
	snapshots    map[string]*model.DailySnapshot
	getErr       error
	putErr       error
	writes       int
}

func newMemCold() *memCold {
	return &memCold{snapshots: map[string]*model.DailySnapshot{}}
}

func (c *memCold) GetRegistry(ctx context.Context) (*model.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.registry, nil
}

func (c *memCold) PutRegistry(ctx context.Context, reg *model.Registry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.registry = reg
	c.writes++
	return nil
}

func (c *memCold) PutRegistryComposition(ctx context.Context, comp *model.RegistryComposition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compositions = append(c.compositions, comp)
	c.writes++
	return nil
}

func (c *memCold) GetDailySnapshot(ctx context.Context, date string) (*model.DailySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshots[date], nil
}

func (c *memCold) PutDailySnapshot(ctx context.Context, snap *model.DailySnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snap.Date] = snap
	c.writes++
	return nil
}

func (c *memCold) Ping(ctx context.Context) error { return nil }
func (c *memCold) Close() error                   { return nil }

// stubPrices returns queued payloads in order, repeating the last one.
type stubPrices struct {
	mu       sync.Mutex
	payloads []any
	errs     []error
	calls    int
}

func (p *stubPrices) Name() string { return "stub" }

func (p *stubPrices) FetchPrices(ctx context.Context, limit int) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.calls
	p.calls++
	if n < len(p.errs) && p.errs[n] != nil {
		return nil, p.errs[n]
	}
	return p.payloads[min(n, len(p.payloads)-1)], nil
}

type stubListings struct {
	listings []model.AssetMetadata
	err      error
	calls    int
}

func (p *stubListings) Name() string { return "stub-meta" }

func (p *stubListings) FetchListings(ctx context.Context) ([]model.AssetMetadata, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.listings, nil
}

// decode turns a JSON literal into the generic shape providers return.
func decode(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		panic(err)
	}
	return v
}
