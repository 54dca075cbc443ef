package model

import "time"

// Trigger records what caused a job run.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

func (t Trigger) String() string {
	return string(t)
}

// PriceRecord is one asset's normalized market data.
type PriceRecord struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	Rank         int     `json:"rank"`
	PriceUSD     float64 `json:"priceUsd"`
	MarketCapUSD float64 `json:"marketCapUsd"`
	Volume24hUSD float64 `json:"volume24hUsd"`
	Change24hPct float64 `json:"change24hPct"`
}

// PriceSet maps an uppercase symbol to its record.
type PriceSet map[string]PriceRecord

// FetchStatus is the canonical fetch status embedded in the price blob.
type FetchStatus struct {
	LastFetchOK   bool       `json:"lastFetchOk"`
	LastError     string     `json:"lastError,omitempty"`
	LastFetchAt   *time.Time `json:"lastFetchAt,omitempty"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	Trigger       Trigger    `json:"trigger,omitempty"`
}

// PriceSnapshotBlob is the single Tier-1 record holding the latest prices
// together with the status of the fetch that produced it.
type PriceSnapshotBlob struct {
	Source    string      `json:"source"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
	Count     int         `json:"count"`
	Prices    PriceSet    `json:"prices"`
	Status    FetchStatus `json:"status"`
	Hash      string      `json:"hash,omitempty"`
}

// HasData reports whether the blob carries a price set from some earlier
// successful fetch.
func (b *PriceSnapshotBlob) HasData() bool {
	return b != nil && len(b.Prices) > 0
}

// StatusView is the projection served on the status endpoint.
type StatusView struct {
	FetchStatus
	Source string `json:"source,omitempty"`
	Count  int    `json:"count"`
	Stale  bool   `json:"stale"`
}

// DailySnapshot is the immutable archive of one day's prices.
type DailySnapshot struct {
	Date       string    `json:"date"`
	Source     string    `json:"source"`
	UpdatedAt  time.Time `json:"updatedAt"`
	SnapshotAt time.Time `json:"snapshotAt"`
	Count      int       `json:"count"`
	Prices     PriceSet  `json:"prices"`
}

// DateLayout is the calendar key used for daily archives.
const DateLayout = "2006-01-02"
