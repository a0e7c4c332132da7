package kv

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rfcheck/pkg/platform/sentinel"
)

//go:embed incr.lua
var incrScript string

// RedisStore is the distributed Store. Incr runs INCR, PTTL and PEXPIRE in
// one Lua script so a counter can never be left without an expiry.
type RedisStore struct {
	client redis.UniversalClient
	incr   *redis.Script
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		incr:   redis.NewScript(incrScript),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (Counter, error) {
	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1
	}
	// Script.Run falls back from EVALSHA to EVAL on NOSCRIPT.
	res, err := s.incr.Run(ctx, s.client, []string{key}, windowMs).Int64Slice()
	if err != nil {
		return Counter{}, fmt.Errorf("redis incr: %w", err)
	}
	if len(res) != 2 {
		return Counter{}, fmt.Errorf("redis incr: unexpected reply length %d", len(res))
	}
	c := Counter{Count: res[0]}
	if res[1] > 0 {
		c.TTL = time.Duration(res[1]) * time.Millisecond
	}
	return c, nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
