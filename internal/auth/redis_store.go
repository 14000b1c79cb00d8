package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionKeyPrefix = "session:"

// RedisSessionStore persists sessions in Redis so multiple API replicas can
// share authentication state. Keys expire with the session's absolute TTL,
// which makes PurgeExpired a no-op.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore opens a Redis-backed session store from a redis:// URL.
func NewRedisSessionStore(url string) (*RedisSessionStore, error) {
	if url == "" {
		return nil, fmt.Errorf("redis session url required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis session url: %w", err)
	}
	return &RedisSessionStore{client: redis.NewClient(opts)}, nil
}

// Close releases the Redis client resources.
func (s *RedisSessionStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisSessionStore) Save(ctx context.Context, tokenHash, userID string, expiresAt, absoluteExpiresAt time.Time) error {
	record := SessionRecord{
		UserID:            userID,
		ExpiresAt:         expiresAt,
		AbsoluteExpiresAt: absoluteExpiresAt,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	ttl := time.Until(absoluteExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, redisSessionKeyPrefix+tokenHash, payload, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, tokenHash string) (SessionRecord, bool, error) {
	payload, err := s.client.Get(ctx, redisSessionKeyPrefix+tokenHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionRecord{}, false, nil
		}
		return SessionRecord{}, false, err
	}
	var record SessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return SessionRecord{}, false, fmt.Errorf("decode session record: %w", err)
	}
	record.TokenHash = tokenHash
	return record, true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, redisSessionKeyPrefix+tokenHash).Err()
}

// PurgeExpired is satisfied by Redis key TTLs.
func (s *RedisSessionStore) PurgeExpired(ctx context.Context, now time.Time) error {
	return nil
}

// Ping verifies the Redis connection is healthy.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
