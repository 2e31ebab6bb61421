package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
	"github.com/KirkDiggler/kegledger/internal/services/generation"
)

// DefaultCacheTTL bounds how long a cached snapshot lives without a generation bump
const DefaultCacheTTL = time.Hour

// ReaderConfig holds configuration for the stats reader
type ReaderConfig struct {
	// Store is read on cache misses
	Store ledger.Reader

	// Generation versions the cached snapshots; optional
	Generation *generation.Client

	// TTL defaults to DefaultCacheTTL
	TTL time.Duration
}

// Reader serves the latest snapshot of a view through the versioned cache
type Reader struct {
	store ledger.Reader
	gen   *generation.Client
	ttl   time.Duration
}

// NewReader creates a stats reader
func NewReader(cfg *ReaderConfig) (*Reader, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("ledger store cannot be nil")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Reader{store: cfg.Store, gen: cfg.Generation, ttl: ttl}, nil
}

// Latest returns the newest snapshot of the view, or an empty snapshot when
// the view has no drinks
func (r *Reader) Latest(ctx context.Context, view View) (*models.Snapshot, error) {
	compute := func(ctx context.Context) (string, error) {
		row, err := r.store.LatestStats(ctx, view.Key())
		if err != nil {
			return "", err
		}
		if row == nil {
			payload, err := models.NewSnapshot().Encode()
			return string(payload), err
		}
		return string(row.Payload), nil
	}

	var (
		payload string
		err     error
	)
	if r.gen != nil {
		payload, err = r.gen.GetOrCompute(ctx, "stats:"+view.Key(), r.ttl, compute)
	} else {
		payload, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}

	snap := models.NewSnapshot()
	if err := json.Unmarshal([]byte(payload), snap); err != nil {
		return nil, fmt.Errorf("failed to decode stats for %s: %w", view.Key(), err)
	}
	return snap, nil
}
