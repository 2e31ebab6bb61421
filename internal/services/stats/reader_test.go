package stats

import (
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/kegledger/internal/common/clock"
	"github.com/KirkDiggler/kegledger/internal/repositories/cache"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
	"github.com/KirkDiggler/kegledger/internal/services/generation"
)

func (s *BuilderTestSuite) TestReaderCacheInvalidatedByGeneration() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store, err := cache.NewRedis(&cache.RedisConfig{RedisClient: client})
	s.Require().NoError(err)
	gen, err := generation.New(&generation.Config{Store: store, Clock: clock.Fixed{At: s.testTime}})
	s.Require().NoError(err)

	reader, err := NewReader(&ReaderConfig{Store: s.store, Generation: gen, TTL: time.Minute})
	s.Require().NoError(err)

	s.buildEach()
	snap, err := reader.Latest(s.ctx, SystemView())
	s.Require().NoError(err)
	s.Equal(int64(5), snap.TotalPours)

	// Remove the newest drink's rows; the cached value is served until the bump
	last := s.drinks[len(s.drinks)-1]
	err = s.store.WithTransaction(s.ctx, func(tx ledger.Tx) error {
		if err := tx.DeleteDrink(s.ctx, last.ID); err != nil {
			return err
		}
		return tx.DeleteStatsFrom(s.ctx, last.ID)
	})
	s.Require().NoError(err)

	cached, err := reader.Latest(s.ctx, SystemView())
	s.Require().NoError(err)
	s.Equal(int64(5), cached.TotalPours)

	_, err = gen.Update(s.ctx)
	s.Require().NoError(err)

	fresh, err := reader.Latest(s.ctx, SystemView())
	s.Require().NoError(err)
	s.Equal(int64(4), fresh.TotalPours)
	s.Equal([]string{"alice", "bob"}, fresh.RegisteredDrinkers)
}
