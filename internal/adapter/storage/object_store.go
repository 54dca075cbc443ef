package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"pricesync/internal/domain/model"
)

// Backend is a flat key → JSON document store. Get returns (nil, nil) when
// the key does not exist.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// Object layout inside the cold store.
const registryKey = "registry/latest.json"

func snapshotKey(priceSet, date string) string {
	return fmt.Sprintf("snapshots/prices/%s/%s.json", priceSet, date)
}

func compositionKey(date string) string {
	return fmt.Sprintf("snapshots/registry/%s.json", date)
}

// ObjectStore implements port.ColdStore on top of a Backend.
type ObjectStore struct {
	backend  Backend
	priceSet string
}

func NewObjectStore(backend Backend, priceSet string) *ObjectStore {
	return &ObjectStore{backend: backend, priceSet: priceSet}
}

func (s *ObjectStore) GetRegistry(ctx context.Context) (*model.Registry, error) {
	var reg model.Registry
	ok, err := s.getJSON(ctx, registryKey, &reg)
	if err != nil || !ok {
		return nil, err
	}
	return &reg, nil
}

func (s *ObjectStore) PutRegistry(ctx context.Context, reg *model.Registry) error {
	return s.putJSON(ctx, registryKey, reg)
}

func (s *ObjectStore) PutRegistryComposition(ctx context.Context, comp *model.RegistryComposition) error {
	return s.putJSON(ctx, compositionKey(comp.Date), comp)
}

func (s *ObjectStore) GetDailySnapshot(ctx context.Context, date string) (*model.DailySnapshot, error) {
	var snap model.DailySnapshot
	ok, err := s.getJSON(ctx, snapshotKey(s.priceSet, date), &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (s *ObjectStore) PutDailySnapshot(ctx context.Context, snap *model.DailySnapshot) error {
	return s.putJSON(ctx, snapshotKey(s.priceSet, snap.Date), snap)
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *ObjectStore) Close() error {
	return s.backend.Close()
}

func (s *ObjectStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to get %s from cold store: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *ObjectStore) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to put %s to cold store: %w", key, err)
	}
	return nil
}
