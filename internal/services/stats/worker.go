package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/metrics"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

// drainTimeout bounds the final rebuild attempted on shutdown
const drainTimeout = 30 * time.Second

// GenerationUpdater bumps the cache generation after stats change
type GenerationUpdater interface {
	Update(ctx context.Context) (int64, error)
}

// WorkerConfig holds configuration for the deferred stats worker
type WorkerConfig struct {
	// Store runs each rebuild in its own transaction
	Store ledger.Store

	// Builder performs the rebuilds
	Builder *Builder

	// Generation is bumped after every successful rebuild; optional
	Generation GenerationUpdater
}

// Worker rebuilds stats outside the transaction that changed the drinks.
// Requests are coalesced: only the smallest pending drink ID is kept, since a
// rebuild from that ID covers every later one.
type Worker struct {
	store   ledger.Store
	builder *Builder
	gen     GenerationUpdater

	mu      sync.Mutex
	pending int64
	queued  bool
	wake    chan struct{}
}

// NewWorker creates a deferred stats worker
func NewWorker(cfg *WorkerConfig) (*Worker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("ledger store cannot be nil")
	}

	if cfg.Builder == nil {
		return nil, errors.New("stats builder cannot be nil")
	}

	return &Worker{
		store:   cfg.Store,
		builder: cfg.Builder,
		gen:     cfg.Generation,
		wake:    make(chan struct{}, 1),
	}, nil
}

// Enqueue requests a rebuild from drinkID forward. It never blocks.
func (w *Worker) Enqueue(drinkID int64) {
	w.mu.Lock()
	if !w.queued || drinkID < w.pending {
		w.pending = drinkID
	}
	w.queued = true
	w.mu.Unlock()
	metrics.StatsQueueDepth.Set(1)

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Pending returns the drink ID the next rebuild starts from
func (w *Worker) Pending() (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending, w.queued
}

// Serve implements suture.Service
func (w *Worker) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			if err := w.Flush(drainCtx); err != nil {
				logging.Ctx(ctx).Error().Err(err).Msg("failed to drain stats rebuild on shutdown")
			}
			cancel()
			return ctx.Err()
		case <-w.wake:
			if err := w.Flush(ctx); err != nil {
				// Returning lets the supervisor restart us with backoff; the request stays queued
				return err
			}
		}
	}
}

// Flush runs the pending rebuild, if any, in its own transaction. A failed
// rebuild is requeued.
func (w *Worker) Flush(ctx context.Context) error {
	w.mu.Lock()
	drinkID, queued := w.pending, w.queued
	w.queued = false
	w.mu.Unlock()

	if !queued {
		return nil
	}
	metrics.StatsQueueDepth.Set(0)

	ctx = logging.ContextWithNewCorrelationID(ctx)
	err := w.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		return w.builder.RebuildFromID(ctx, tx, drinkID)
	})
	if err != nil {
		w.Enqueue(drinkID)
		return fmt.Errorf("failed to rebuild stats from drink %d: %w", drinkID, err)
	}

	if w.gen != nil {
		_, err := w.gen.Update(ctx)
		metrics.RecordGenerationBump(err)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("failed to bump generation after stats rebuild")
		}
	}

	return nil
}

// String implements fmt.Stringer for supervisor logs
func (w *Worker) String() string {
	return "stats-worker"
}
