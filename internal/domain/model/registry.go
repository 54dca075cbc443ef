package model

import "time"

// RegistryEntry is one asset identity keyed by the provider's stable ID.
type RegistryEntry struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	LogoURL       string    `json:"logoUrl,omitempty"`
	MarketCapRank int       `json:"marketCapRank,omitempty"`
	FirstSeenAt   time.Time `json:"firstSeenAt"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
}

// Registry is the append-only asset metadata store.
type Registry struct {
	Source    string                   `json:"source"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Count     int                      `json:"count"`
	Entries   map[string]RegistryEntry `json:"entries"`
	BySymbol  map[string][]string      `json:"bySymbol"`
}

// NewRegistry returns an empty registry ready for inserts.
func NewRegistry(source string) *Registry {
	return &Registry{
		Source:   source,
		Entries:  make(map[string]RegistryEntry),
		BySymbol: make(map[string][]string),
	}
}

// IndexSymbol appends id to the symbol's ID list unless already present.
func (r *Registry) IndexSymbol(symbol, id string) {
	for _, existing := range r.BySymbol[symbol] {
		if existing == id {
			return
		}
	}
	r.BySymbol[symbol] = append(r.BySymbol[symbol], id)
}

// CompositionAsset is one line of the daily registry composition.
type CompositionAsset struct {
	Symbol string `json:"symbol"`
	ID     string `json:"id"`
	Rank   int    `json:"rank"`
}

// RegistryComposition records which assets a registry fetch listed on a
// given day.
type RegistryComposition struct {
	Date      string             `json:"date"`
	UpdatedAt time.Time          `json:"updatedAt"`
	Count     int                `json:"count"`
	Assets    []CompositionAsset `json:"assets"`
}

// AssetMetadata is one listing returned by the metadata provider.
type AssetMetadata struct {
	ID            string
	Symbol        string
	Name          string
	LogoURL       string
	MarketCapRank int
}
