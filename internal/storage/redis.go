package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"obfuscator/pkg/platform/sentinel"
)

const redisKeyPrefix = "obj:"

// RedisStore keeps objects as Redis strings under obj:<container>/<path>.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore creates a store. A zero ttl keeps objects until deleted.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func RedisKey(container, path string) string {
	return redisKeyPrefix + objectName(container, path)
}

func (s *RedisStore) Fetch(ctx context.Context, container, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, RedisKey(container, path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("redis object %s: %w", objectName(container, path), sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get redis object %s: %w", objectName(container, path), err)
	}
	return data, nil
}

func (s *RedisStore) Put(ctx context.Context, container, path string, data []byte) error {
	if err := s.client.Set(ctx, RedisKey(container, path), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set redis object %s: %w", objectName(container, path), err)
	}
	return nil
}
