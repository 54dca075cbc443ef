package port

import (
	"context"

	"pricesync/internal/domain/model"
)

// HotCache is the Tier-1 key-value store. Getters return (nil, nil) when
// the key has never been written.
type HotCache interface {
	GetPriceBlob(ctx context.Context) (*model.PriceSnapshotBlob, error)
	PutPriceBlob(ctx context.Context, blob *model.PriceSnapshotBlob) error
	GetRegistryMirror(ctx context.Context) (*model.Registry, error)
	PutRegistryMirror(ctx context.Context, reg *model.Registry) error
	Ping(ctx context.Context) error
	Close() error
}
