package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// maxConflictRetries bounds the optimistic retries of Incr and SetNX
const maxConflictRetries = 16

// BadgerConfig holds configuration for the embedded cache store
type BadgerConfig struct {
	// DB is an open badger database
	DB *badger.DB
}

// badgerStore implements the Store interface on an embedded badger database
type badgerStore struct {
	db *badger.DB
}

// NewBadger creates a new badger-backed cache store
func NewBadger(cfg *BadgerConfig) (*badgerStore, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.DB == nil {
		return nil, errors.New("badger database cannot be nil")
	}

	return &badgerStore{db: cfg.DB}, nil
}

// OpenBadger opens a badger database at dir, or in memory when dir is empty
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}

// Get retrieves a value
func (b *badgerStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	found := true

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return value, found, nil
}

// Set stores a value
func (b *badgerStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(value))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetNX stores a value only when the key does not exist
func (b *badgerStore) SetNX(ctx context.Context, key string, value string) (bool, error) {
	var stored bool

	err := b.retry(ctx, func(txn *badger.Txn) error {
		stored = false
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		stored = true
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return false, fmt.Errorf("failed to setnx %s: %w", key, err)
	}

	return stored, nil
}

// Incr atomically increments an integer value
func (b *badgerStore) Incr(ctx context.Context, key string) (int64, error) {
	var n int64

	err := b.retry(ctx, func(txn *badger.Txn) error {
		n = 0
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				parsed, err := strconv.ParseInt(string(val), 10, 64)
				if err != nil {
					return fmt.Errorf("value is not an integer: %w", err)
				}
				n = parsed
				return nil
			}); err != nil {
				return err
			}
		}
		n++
		return txn.Set([]byte(key), []byte(strconv.FormatInt(n, 10)))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	return n, nil
}

// retry runs fn in an update transaction until it commits without a conflict
func (b *badgerStore) retry(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
