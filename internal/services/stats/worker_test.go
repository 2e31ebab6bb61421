package stats

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

type countingGeneration struct {
	bumps atomic.Int64
}

func (c *countingGeneration) Update(context.Context) (int64, error) {
	return c.bumps.Add(1), nil
}

func (s *BuilderTestSuite) newWorker(gen GenerationUpdater) *Worker {
	worker, err := NewWorker(&WorkerConfig{Store: s.store, Builder: s.builder, Generation: gen})
	s.Require().NoError(err)
	return worker
}

func (s *BuilderTestSuite) TestNewWorkerValidatesConfig() {
	_, err := NewWorker(nil)
	s.Error(err)

	_, err = NewWorker(&WorkerConfig{Store: s.store})
	s.Error(err)
}

func (s *BuilderTestSuite) TestWorkerCoalescesToSmallestDrink() {
	worker := s.newWorker(nil)

	_, queued := worker.Pending()
	s.False(queued)

	worker.Enqueue(s.drinks[3].ID)
	worker.Enqueue(s.drinks[1].ID)
	worker.Enqueue(s.drinks[4].ID)

	pending, queued := worker.Pending()
	s.True(queued)
	s.Equal(s.drinks[1].ID, pending)
}

func (s *BuilderTestSuite) TestWorkerFlushRebuildsAndBumps() {
	s.buildEach()
	expected := s.payloads()

	// Drop everything from the second drink and let the worker restore it
	err := s.store.WithTransaction(s.ctx, func(tx ledger.Tx) error {
		return tx.DeleteStatsFrom(s.ctx, s.drinks[1].ID)
	})
	s.Require().NoError(err)

	gen := &countingGeneration{}
	worker := s.newWorker(gen)
	worker.Enqueue(s.drinks[1].ID)

	s.Require().NoError(worker.Flush(s.ctx))
	s.Equal(expected, s.payloads())
	s.Equal(int64(1), gen.bumps.Load())

	_, queued := worker.Pending()
	s.False(queued)

	// Nothing queued means nothing to do
	s.Require().NoError(worker.Flush(s.ctx))
	s.Equal(int64(1), gen.bumps.Load())
}

func (s *BuilderTestSuite) TestWorkerServeProcessesQueue() {
	gen := &countingGeneration{}
	worker := s.newWorker(gen)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- worker.Serve(ctx) }()

	worker.Enqueue(s.drinks[0].ID)
	s.Eventually(func() bool { return gen.bumps.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	s.ErrorIs(<-done, context.Canceled)

	rows, err := s.store.ListStatsForDrink(s.ctx, s.drinks[4].ID)
	s.Require().NoError(err)
	s.Len(rows, 8)
}

func (s *BuilderTestSuite) TestReaderServesLatestSnapshot() {
	reader, err := NewReader(&ReaderConfig{Store: s.store})
	s.Require().NoError(err)

	empty, err := reader.Latest(s.ctx, UserView(12345))
	s.Require().NoError(err)
	s.Zero(empty.TotalPours)
	s.NotNil(empty.VolumeByDrinker)

	s.buildEach()

	snap, err := reader.Latest(s.ctx, KegView(s.kegID))
	s.Require().NoError(err)
	s.Equal(int64(5), snap.TotalPours)
	s.Equal(map[string]float64{"alice": 750, "bob": 750, models.GuestUsername: 120}, snap.VolumeByDrinker)
}
