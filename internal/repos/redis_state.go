package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyNamespace = "nittosodai:session"

// RedisState keeps session state in Redis, one string key per (session, key).
type RedisState struct {
	rdb *redis.Client
	ttl time.Duration // 0 keeps keys forever
}

func NewRedisState(rdb *redis.Client, ttl time.Duration) *RedisState {
	return &RedisState{rdb: rdb, ttl: ttl}
}

// OpenRedis parses a redis:// URL and verifies connectivity.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func redisKey(sessionID, key string) string {
	return redisKeyNamespace + ":" + sessionID + ":" + key
}

func (s *RedisState) Load(ctx context.Context, sessionID, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, redisKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	return b, err
}

func (s *RedisState) Save(ctx context.Context, sessionID, key string, value []byte) error {
	return s.rdb.Set(ctx, redisKey(sessionID, key), value, s.ttl).Err()
}

func (s *RedisState) Delete(ctx context.Context, sessionID, key string) error {
	return s.rdb.Del(ctx, redisKey(sessionID, key)).Err()
}
