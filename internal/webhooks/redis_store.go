package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "webhooks:processed:v1:"

// RedisStore dedupes events with SETNX so every replica sees the same marks.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("webhooks: redis client required")
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(processor, eventID string) string {
	return redisKeyPrefix + processor + ":" + eventID
}

func (s *RedisStore) MarkProcessed(ctx context.Context, processor, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKey(processor, eventID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("webhooks: redis mark processed: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Forget(ctx context.Context, processor, eventID string) error {
	if err := s.client.Del(ctx, redisKey(processor, eventID)).Err(); err != nil {
		return fmt.Errorf("webhooks: redis forget: %w", err)
	}
	return nil
}
