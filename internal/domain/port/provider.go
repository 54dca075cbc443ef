package port

import (
	"context"

	"pricesync/internal/domain/model"
)

// PriceProvider fetches the ranked price listing. The payload is returned
// decoded but otherwise untouched; shape detection happens in the normalizer.
type PriceProvider interface {
	Name() string
	FetchPrices(ctx context.Context, limit int) (any, error)
}

// MetadataProvider fetches ranked listings with stable IDs and logos.
type MetadataProvider interface {
	Name() string
	FetchListings(ctx context.Context) ([]model.AssetMetadata, error)
}
