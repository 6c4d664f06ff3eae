package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// RedisRepository keeps pending orders under checkout:pending:<key>. Records
// expire after TTL so an abandoned payment does not linger.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisRepository{client: client, ttl: ttl}
}

func redisKey(key string) string {
	return fmt.Sprintf("checkout:pending:%s", key)
}

func (r *RedisRepository) Save(ctx context.Context, key string, order PendingOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal pending order: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) Load(ctx context.Context, key string) (PendingOrder, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingOrder{}, ErrNotFound
	}
	if err != nil {
		return PendingOrder{}, fmt.Errorf("redis get failed: %w", err)
	}

	var order PendingOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return PendingOrder{}, fmt.Errorf("unmarshal pending order failed: %w", err)
	}
	return order, nil
}

func (r *RedisRepository) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
