package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"rfcheck/pkg/platform/sentinel"
)

type RedisStoreSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	store *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })
	s.store = NewRedisStore(client)
}

func (s *RedisStoreSuite) TestGetSet() {
	ctx := context.Background()

	_, err := s.store.Get(ctx, "absent")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Set(ctx, "k", []byte(`{"valid":true}`), time.Hour))
	got, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal(`{"valid":true}`, string(got))
	s.Equal(time.Hour, s.mr.TTL("k"))

	s.mr.FastForward(time.Hour)
	_, err = s.store.Get(ctx, "k")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestIncrSetsExpiryWithCount() {
	ctx := context.Background()

	c, err := s.store.Incr(ctx, "rl", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(1), c.Count)
	s.Equal(time.Minute, c.TTL)
	s.Equal(time.Minute, s.mr.TTL("rl"), "expiry is set in the same script as the increment")

	s.mr.FastForward(15 * time.Second)
	c, err = s.store.Incr(ctx, "rl", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(2), c.Count)
	s.Equal(45*time.Second, c.TTL)

	s.mr.FastForward(45 * time.Second)
	c, err = s.store.Incr(ctx, "rl", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(1), c.Count)
}

func (s *RedisStoreSuite) TestIncrRepairsCounterWithoutExpiry() {
	ctx := context.Background()
	s.Require().NoError(s.mr.Set("orphan", "7"))

	c, err := s.store.Incr(ctx, "orphan", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(8), c.Count)
	s.Equal(time.Minute, s.mr.TTL("orphan"))
}

// Justification: a Redis restart or failover empties the script cache; the
// counter must keep working without a manual reload.
func (s *RedisStoreSuite) TestIncrSurvivesScriptCacheFlush() {
	ctx := context.Background()

	_, err := s.store.Incr(ctx, "rl", time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.client.ScriptFlush(ctx).Err())

	c, err := s.store.Incr(ctx, "rl", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(2), c.Count)
}

func (s *RedisStoreSuite) TestErrorsWhenUnreachable() {
	ctx := context.Background()
	s.mr.Close()

	_, err := s.store.Get(ctx, "k")
	s.Error(err)
	s.NotErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Incr(ctx, "k", time.Minute)
	s.Error(err)
}
