package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	redis "github.com/redis/go-redis/v9"

	"invoicedesk/backend/internal/domain"
)

type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(addr string, password string, db int) *RedisSnapshotCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key string) ([]*domain.RawInvoice, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var invoices []*domain.RawInvoice
	if err := json.Unmarshal(val, &invoices); err != nil {
		return nil, false, err
	}
	return invoices, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, value []*domain.RawInvoice, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
