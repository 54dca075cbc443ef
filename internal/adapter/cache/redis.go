package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pricesync/internal/domain/model"
)

// RedisAdapter is the Tier-1 store. It holds exactly two keys: the combined
// price+status blob and the registry mirror. Keys never expire; staleness is
// reported through the embedded status instead.
type RedisAdapter struct {
	client      *redis.Client
	priceKey    string
	registryKey string
}

func NewRedisAdapter(addr, password string, db, poolSize int, prefix, priceSet string) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisAdapterWithClient(client, prefix, priceSet), nil
}

func NewRedisAdapterWithClient(client *redis.Client, prefix, priceSet string) *RedisAdapter {
	return &RedisAdapter{
		client:      client,
		priceKey:    fmt.Sprintf("%sprices:%s:latest", prefix, priceSet),
		registryKey: prefix + "registry:latest",
	}
}

func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *RedisAdapter) GetPriceBlob(ctx context.Context) (*model.PriceSnapshotBlob, error) {
	var blob model.PriceSnapshotBlob
	ok, err := a.getJSON(ctx, a.priceKey, &blob)
	if err != nil || !ok {
		return nil, err
	}
	return &blob, nil
}

func (a *RedisAdapter) PutPriceBlob(ctx context.Context, blob *model.PriceSnapshotBlob) error {
	return a.setJSON(ctx, a.priceKey, blob)
}

func (a *RedisAdapter) GetRegistryMirror(ctx context.Context) (*model.Registry, error) {
	var reg model.Registry
	ok, err := a.getJSON(ctx, a.registryKey, &reg)
	if err != nil || !ok {
		return nil, err
	}
	return &reg, nil
}

func (a *RedisAdapter) PutRegistryMirror(ctx context.Context, reg *model.Registry) error {
	return a.setJSON(ctx, a.registryKey, reg)
}

func (a *RedisAdapter) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := a.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (a *RedisAdapter) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := a.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
