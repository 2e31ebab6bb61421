package cache

//go:generate mockgen -package=mocks -destination=mocks/mock_store.go github.com/KirkDiggler/kegledger/internal/repositories/cache Store

import (
	"context"
	"time"
)

// Store defines the key/value operations the generation counter and the
// versioned stats cache need
type Store interface {
	// Get retrieves a value; the bool is false when the key does not exist
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value; a zero ttl keeps it until overwritten
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetNX stores a value only when the key does not exist and reports whether it was stored
	SetNX(ctx context.Context, key string, value string) (bool, error)

	// Incr atomically increments an integer value and returns the new value.
	// A missing key is treated as zero.
	Incr(ctx context.Context, key string) (int64, error)
}
