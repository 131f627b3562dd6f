//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"obfuscator/pkg/platform/sentinel"
	"obfuscator/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	store := NewRedisStore(s.redis.Client, 0)

	s.Require().NoError(store.Put(ctx, "bucket", "a.csv", []byte("name\nAda\n")))

	raw, err := s.redis.Client.Get(ctx, "obj:bucket/a.csv").Bytes()
	s.Require().NoError(err)
	s.Equal("name\nAda\n", string(raw))

	got, err := store.Fetch(ctx, "bucket", "a.csv")
	s.Require().NoError(err)
	s.Equal("name\nAda\n", string(got))
}

func (s *RedisStoreSuite) TestMissing() {
	_, err := NewRedisStore(s.redis.Client, 0).Fetch(context.Background(), "bucket", "none.csv")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestTTL() {
	ctx := context.Background()
	store := NewRedisStore(s.redis.Client, time.Minute)
	s.Require().NoError(store.Put(ctx, "bucket", "a.json", []byte("[]")))

	ttl, err := s.redis.Client.TTL(ctx, RedisKey("bucket", "a.json")).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
