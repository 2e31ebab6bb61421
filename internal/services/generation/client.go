// Package generation maintains the site-wide generation counter. Every
// mutation of the ledger bumps the counter, and cached values are stored under
// keys that embed the current generation, so a bump invalidates every cached
// value at once.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/clock"
	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/repositories/cache"
)

// DefaultKey is the cache key holding the counter
const DefaultKey = "generation"

// Error is the error type of the generation client
type Error string

// Error implements the error interface
func (e Error) Error() string {
	return string(e)
}

const (
	ErrNilConfig Error = "config cannot be nil"
	ErrNilStore  Error = "cache store cannot be nil"
	ErrNilClock  Error = "clock cannot be nil"
)

// Config holds configuration for the generation client
type Config struct {
	// Store holds the counter and the versioned values
	Store cache.Store

	// Clock seeds the counter the first time it is read
	Clock clock.Clock

	// Key overrides DefaultKey
	Key string
}

// Client reads and bumps the generation counter
type Client struct {
	store cache.Store
	clock clock.Clock
	key   string
}

// New creates a generation client
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.Store == nil {
		return nil, ErrNilStore
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	return &Client{
		store: cfg.Store,
		clock: cfg.Clock,
		key:   key,
	}, nil
}

// Get returns the current generation. A missing counter is seeded with the
// current unix time so a cache that lost the counter never reuses an old
// generation. Only one racing initialiser wins; the others re-read.
func (c *Client) Get(ctx context.Context) (int64, error) {
	value, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		return 0, fmt.Errorf("failed to read generation: %w", err)
	}

	if !found {
		seed := strconv.FormatInt(c.clock.Now().Unix(), 10)
		if _, err := c.store.SetNX(ctx, c.key, seed); err != nil {
			return 0, fmt.Errorf("failed to initialise generation: %w", err)
		}

		value, found, err = c.store.Get(ctx, c.key)
		if err != nil {
			return 0, fmt.Errorf("failed to read generation: %w", err)
		}
		if !found {
			return 0, errors.New("generation disappeared after initialisation")
		}
	}

	gen, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("generation %q is not an integer: %w", value, err)
	}

	return gen, nil
}

// Update bumps the generation and returns the new value
func (c *Client) Update(ctx context.Context) (int64, error) {
	// Make sure a seeded counter exists before incrementing from zero
	if _, err := c.Get(ctx); err != nil {
		return 0, err
	}

	gen, err := c.store.Incr(ctx, c.key)
	if err != nil {
		return 0, fmt.Errorf("failed to bump generation: %w", err)
	}

	return gen, nil
}

// Key returns base qualified by the current generation
func (c *Client) Key(ctx context.Context, base string) (string, error) {
	gen, err := c.Get(ctx)
	if err != nil {
		return "", err
	}

	return base + ":" + strconv.FormatInt(gen, 10), nil
}

// GetOrCompute returns the value cached under the versioned form of base,
// computing and storing it on a miss. Cache read and write failures fall back
// to compute.
func (c *Client) GetOrCompute(ctx context.Context, base string, ttl time.Duration, compute func(ctx context.Context) (string, error)) (string, error) {
	key, err := c.Key(ctx, base)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", base).Msg("generation unavailable, computing uncached")
		return compute(ctx)
	}

	if value, found, err := c.store.Get(ctx, key); err == nil && found {
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache value")
	}

	return value, nil
}
