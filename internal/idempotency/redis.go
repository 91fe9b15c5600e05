package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldRequestPayload  = "requestPayload"
	fieldResponsePayload = "responsePayload"
	fieldCreatedTime     = "createdTime"
)

// RedisCache keeps one hash per key so every replica sees the same entries.
// It shares MemoryCache's check-then-write race.
type RedisCache struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisCache creates a redis backed cache. A zero retention keeps entries forever; expiry is
// otherwise decided by the replay window, not by eviction.
func NewRedisCache(client redis.UniversalClient, prefix string, retention time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "idempotency"
	}
	return &RedisCache{client: client, prefix: prefix, retention: retention}
}

func (c *RedisCache) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	values, err := c.client.HGetAll(ctx, c.redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("read idempotency entry: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &Entry{
		RequestPayload:  values[fieldRequestPayload],
		ResponsePayload: values[fieldResponsePayload],
		CreatedTime:     values[fieldCreatedTime],
	}, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, entry Entry) error {
	redisKey := c.redisKey(key)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, redisKey,
		fieldRequestPayload, entry.RequestPayload,
		fieldResponsePayload, entry.ResponsePayload,
		fieldCreatedTime, entry.CreatedTime,
	)
	if c.retention > 0 {
		pipe.Expire(ctx, redisKey, c.retention)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write idempotency entry: %w", err)
	}
	return nil
}
