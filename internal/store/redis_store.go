package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/servicehubhq/cart-service/internal/models"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) LocalStore {
	return &redisStore{client: client, ttl: ttl}
}

func (r *redisStore) Read(ctx context.Context, deviceID string) ([]models.CartLineItem, error) {

	data, err := r.client.Get(ctx, SnapshotKey(deviceID)).Bytes()
	if err != nil {

		if err == redis.Nil {
			return []models.CartLineItem{}, nil
		}

		return nil, fmt.Errorf("failed to get snapshot for device %s: %w", deviceID, err)
	}

	var items []models.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot for device %s: %w", deviceID, err)
	}

	return items, nil
}

func (r *redisStore) Write(ctx context.Context, deviceID string, items []models.CartLineItem) error {

	if items == nil {
		items = []models.CartLineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for device %s: %w", deviceID, err)
	}

	if err := r.client.Set(ctx, SnapshotKey(deviceID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot for device %s: %w", deviceID, err)
	}

	return nil
}

func (r *redisStore) Delete(ctx context.Context, deviceID string) error {

	if err := r.client.Del(ctx, SnapshotKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot for device %s: %w", deviceID, err)
	}

	return nil
}

// ActiveSnapshots walks the keyspace with SCAN so the count never blocks
// the server the way KEYS would.
func (r *redisStore) ActiveSnapshots(ctx context.Context) (int64, error) {

	var count int64
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, SnapshotKeyPrefix+":*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan snapshots: %w", err)
		}

		count += int64(len(keys))
		cursor = next

		if cursor == 0 {
			return count, nil
		}
	}
}
