package port

import (
	"context"

	"pricesync/internal/domain/model"
)

// ColdStore is the Tier-2 object store holding the authoritative registry
// and the daily archives. Getters return (nil, nil) when the object does
// not exist.
type ColdStore interface {
	GetRegistry(ctx context.Context) (*model.Registry, error)
	PutRegistry(ctx context.Context, reg *model.Registry) error
	PutRegistryComposition(ctx context.Context, comp *model.RegistryComposition) error
	GetDailySnapshot(ctx context.Context, date string) (*model.DailySnapshot, error)
	PutDailySnapshot(ctx context.Context, snap *model.DailySnapshot) error
	Ping(ctx context.Context) error
	Close() error
}
