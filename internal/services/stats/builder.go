package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/metrics"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

// DefaultBatchSize is the number of drinks read per page during a rebuild
const DefaultBatchSize = 500

// Config holds configuration for the stats builder
type Config struct {
	// BatchSize is the number of drinks read per page during a rebuild
	BatchSize int
}

// Builder writes stats rows inside a ledger transaction
type Builder struct {
	batchSize int
}

// NewBuilder creates a stats builder
func NewBuilder(cfg *Config) (*Builder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.BatchSize < 0 {
		return nil, errors.New("batch size cannot be negative")
	}

	batch := cfg.BatchSize
	if batch == 0 {
		batch = DefaultBatchSize
	}

	return &Builder{batchSize: batch}, nil
}

// BuildForID writes the rows of one drink, each chained from the latest row of
// its view that belongs to an older drink. Rows already written for the drink
// are replaced.
func (b *Builder) BuildForID(ctx context.Context, tx ledger.Tx, drinkID int64) error {
	start := time.Now()

	drink, err := tx.GetDrink(ctx, drinkID)
	if err != nil {
		return err
	}

	if err := tx.DeleteStatsForDrink(ctx, drinkID); err != nil {
		return err
	}

	lk := newLookup(tx)
	dc, err := lk.drinkContext(ctx, drink)
	if err != nil {
		return err
	}

	rows := 0
	for _, view := range ViewsFor(drink) {
		prior, err := tx.LatestStatsBefore(ctx, view.Key(), drinkID)
		if err != nil {
			return err
		}

		priorSnap := models.NewSnapshot()
		if prior != nil {
			if priorSnap, err = prior.Snapshot(); err != nil {
				return fmt.Errorf("failed to decode stats row %d: %w", prior.ID, err)
			}
		}

		if err := write(ctx, tx, view, drink, Apply(dc, priorSnap)); err != nil {
			return err
		}
		rows++
	}

	metrics.RecordStatsBuild("drink", time.Since(start), rows)
	return nil
}

// RebuildFromID deletes every row belonging to drink drinkID or later and
// regenerates them from the drinks, oldest first
func (b *Builder) RebuildFromID(ctx context.Context, tx ledger.Tx, drinkID int64) error {
	start := time.Now()

	if err := tx.DeleteStatsFrom(ctx, drinkID); err != nil {
		return err
	}

	lk := newLookup(tx)
	latest := map[string]*models.Snapshot{}
	rows := 0
	drinks := 0

	from := drinkID
	for {
		page, err := tx.ListDrinksFrom(ctx, &ledger.ListDrinksFromInput{FromID: from, Limit: b.batchSize})
		if err != nil {
			return err
		}

		for _, drink := range page {
			dc, err := lk.drinkContext(ctx, drink)
			if err != nil {
				return err
			}

			for _, view := range ViewsFor(drink) {
				key := view.Key()
				prior, ok := latest[key]
				if !ok {
					if prior, err = loadLatest(ctx, tx, key); err != nil {
						return err
					}
				}

				next := Apply(dc, prior)
				if err := write(ctx, tx, view, drink, next); err != nil {
					return err
				}
				latest[key] = next
				rows++
			}
			drinks++
		}

		if len(page) < b.batchSize {
			break
		}
		from = page[len(page)-1].ID + 1
	}

	logging.Ctx(ctx).Debug().
		Int64("from_drink_id", drinkID).
		Int("drinks", drinks).
		Int("rows", rows).
		Msg("rebuilt stats")

	metrics.RecordStatsBuild("rebuild", time.Since(start), rows)
	return nil
}

// loadLatest decodes the newest stored row of a view, or the empty snapshot
func loadLatest(ctx context.Context, tx ledger.Tx, key string) (*models.Snapshot, error) {
	row, err := tx.LatestStats(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return models.NewSnapshot(), nil
	}

	snap, err := row.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to decode stats row %d: %w", row.ID, err)
	}
	return snap, nil
}

func write(ctx context.Context, tx ledger.Tx, view View, drink *models.Drink, snap *models.Snapshot) error {
	payload, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode stats for drink %d: %w", drink.ID, err)
	}

	return tx.CreateStats(ctx, &models.Stats{
		DrinkID:   drink.ID,
		View:      view.Kind,
		ViewKey:   view.Key(),
		UserID:    view.UserID,
		KegID:     view.KegID,
		SessionID: view.SessionID,
		Time:      drink.Time,
		Payload:   payload,
	})
}

// lookup memoises the users and session time zones a build touches
type lookup struct {
	tx        ledger.Reader
	users     map[int64]*models.User
	locations map[int64]*time.Location
}

func newLookup(tx ledger.Reader) *lookup {
	return &lookup{
		tx:        tx,
		users:     map[int64]*models.User{},
		locations: map[int64]*time.Location{},
	}
}

func (l *lookup) drinkContext(ctx context.Context, drink *models.Drink) (*DrinkContext, error) {
	user, ok := l.users[drink.UserID]
	if !ok {
		var err error
		if user, err = l.tx.GetUser(ctx, drink.UserID); err != nil {
			return nil, err
		}
		l.users[drink.UserID] = user
	}

	loc := time.UTC
	if drink.SessionID != nil {
		cached, ok := l.locations[*drink.SessionID]
		if !ok {
			session, err := l.tx.GetSession(ctx, *drink.SessionID)
			if err != nil {
				return nil, err
			}
			cached = session.Location()
			l.locations[*drink.SessionID] = cached
		}
		loc = cached
	}

	return &DrinkContext{
		Drink:    drink,
		Username: user.Username,
		IsGuest:  user.IsGuest,
		Location: loc,
	}, nil
}
