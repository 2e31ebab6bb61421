package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisStoreTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	store  Store
	ctx    context.Context
}

func (s *RedisStoreTestSuite) SetupTest() {
	// Create a new miniredis server for each test
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mr.Addr(),
	})

	store, err := NewRedis(&RedisConfig{
		RedisClient: s.client,
		KeyPrefix:   "kegledger:",
	})
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *RedisStoreTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestNewRedisValidatesConfig() {
	_, err := NewRedis(nil)
	s.Error(err)

	_, err = NewRedis(&RedisConfig{})
	s.Error(err)
}

func (s *RedisStoreTestSuite) TestGetMissing() {
	_, found, err := s.store.Get(s.ctx, "missing")
	s.Require().NoError(err)
	s.False(found)
}

func (s *RedisStoreTestSuite) TestSetAndGetWithPrefix() {
	s.Require().NoError(s.store.Set(s.ctx, "stats:u:1|k:-|s:-:3", "{}", time.Minute))

	value, found, err := s.store.Get(s.ctx, "stats:u:1|k:-|s:-:3")
	s.Require().NoError(err)
	s.True(found)
	s.Equal("{}", value)

	// The prefix is applied on the server side key
	s.True(s.mr.Exists("kegledger:stats:u:1|k:-|s:-:3"))

	s.mr.FastForward(2 * time.Minute)
	_, found, err = s.store.Get(s.ctx, "stats:u:1|k:-|s:-:3")
	s.Require().NoError(err)
	s.False(found)
}

func (s *RedisStoreTestSuite) TestSetNXOnlyStoresOnce() {
	stored, err := s.store.SetNX(s.ctx, "generation", "10")
	s.Require().NoError(err)
	s.True(stored)

	stored, err = s.store.SetNX(s.ctx, "generation", "20")
	s.Require().NoError(err)
	s.False(stored)

	value, _, err := s.store.Get(s.ctx, "generation")
	s.Require().NoError(err)
	s.Equal("10", value)
}

func (s *RedisStoreTestSuite) TestIncr() {
	n, err := s.store.Incr(s.ctx, "generation")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.store.Incr(s.ctx, "generation")
	s.Require().NoError(err)
	s.Equal(int64(2), n)
}
