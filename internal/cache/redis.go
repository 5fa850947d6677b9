// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"trendscout/internal/common/config"
	apperrors "trendscout/internal/common/errors"
)

const redisKeyPrefix = "signals:"

// redisStore is the redis-backed persistent tier. The entry TTL is also set
// server-side so redis reclaims expired keys on its own.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.NewCacheUnavailableError("redis", err)
	}
	return &redisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client (used with test servers).
func NewRedisStoreFromClient(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, hash string) (*Entry, error) {
	val, err := s.client.Get(ctx, redisKeyPrefix+hash).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError("redis", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		_ = s.client.Del(ctx, redisKeyPrefix+hash).Err()
		return nil, nil
	}
	return &entry, nil
}

func (s *redisStore) Put(ctx context.Context, hash string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	ttl := time.Duration(entry.TTLSeconds) * time.Second
	if err := s.client.Set(ctx, redisKeyPrefix+hash, data, ttl).Err(); err != nil {
		return apperrors.NewCacheUnavailableError("redis", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, hash string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+hash).Err(); err != nil && err != redis.Nil {
		return apperrors.NewCacheUnavailableError("redis", err)
	}
	return nil
}
