package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const maxTTLJitter = 5 * time.Minute

func NewRedisStorage(client *redis.Client, storageKey string, baseTTL time.Duration) *RedisStorage {
	return &RedisStorage{
		client:  client,
		key:     cartKey(storageKey),
		baseTTL: baseTTL,
	}
}

// RedisStorage keeps the cart under cart:<storage key> and refreshes the
// TTL on every write.
type RedisStorage struct {
	client  *redis.Client
	key     string
	baseTTL time.Duration
}

func (r *RedisStorage) Load(ctx context.Context) (*domain.CartDocument, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var doc domain.CartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &doc, nil
}

func (r *RedisStorage) Save(ctx context.Context, doc domain.CartDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	var ttl time.Duration
	if r.baseTTL > 0 {
		jitter := time.Duration(rand.Int63n(int64(maxTTLJitter)))
		ttl = r.baseTTL + jitter
	}
	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func cartKey(storageKey string) string {
	return fmt.Sprintf("cart:%s", storageKey)
}
