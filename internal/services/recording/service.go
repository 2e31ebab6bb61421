// Package recording implements the operations that mutate the drink ledger:
// pours, corrections, and the keg lifecycle. Each operation runs in one
// ledger transaction; events are dispatched and the cache generation is
// bumped only after that transaction commits.
package recording

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/clock"
	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/metrics"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
	"github.com/KirkDiggler/kegledger/internal/services/events"
	"github.com/KirkDiggler/kegledger/internal/services/sessions"
	"github.com/KirkDiggler/kegledger/internal/services/stats"
)

// service implements the Service interface
type service struct {
	store      ledger.Store
	sessions   *sessions.Service
	stats      *stats.Builder
	events     *events.Builder
	clock      clock.Clock
	generation GenerationUpdater
	mode       StatsMode
	queue      StatsQueue
	dispatcher Dispatcher
}

// New creates a new recording backend
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.Store == nil {
		return nil, ErrNilStore
	}

	if cfg.Sessions == nil {
		return nil, ErrNilSessions
	}

	if cfg.Stats == nil {
		return nil, ErrNilStats
	}

	if cfg.Events == nil {
		return nil, ErrNilEvents
	}

	if cfg.Clock == nil {
		return nil, ErrNilClock
	}

	if cfg.Generation == nil {
		return nil, ErrNilGeneration
	}

	mode := cfg.StatsMode
	if mode == "" {
		mode = StatsModeSync
	}
	switch mode {
	case StatsModeSync:
	case StatsModeDeferred:
		if cfg.StatsQueue == nil {
			return nil, ErrNilStatsQueue
		}
	default:
		return nil, ErrBadStatsMode
	}

	return &service{
		store:      cfg.Store,
		sessions:   cfg.Sessions,
		stats:      cfg.Stats,
		events:     cfg.Events,
		clock:      cfg.Clock,
		generation: cfg.Generation,
		mode:       mode,
		queue:      cfg.StatsQueue,
		dispatcher: cfg.Dispatcher,
	}, nil
}

// RecordDrink records a pour from a tap
func (s *service) RecordDrink(ctx context.Context, input *RecordDrinkInput) (out *RecordDrinkOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("record_drink", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	out = &RecordDrinkOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		tap, err := s.resolveTap(ctx, tx, input)
		if err != nil {
			return err
		}

		keg, err := s.activeKeg(ctx, tx, tap)
		if err != nil {
			return err
		}

		volume, err := resolveVolume(tap, input)
		if err != nil {
			return err
		}

		if input.Spilled {
			if err := tx.AddKegVolume(ctx, &ledger.AddKegVolumeInput{KegID: keg.ID, Spilled: volume}); err != nil {
				return err
			}
			out.Spilled = true
			out.Keg, err = tx.GetKeg(ctx, keg.ID)
			return err
		}

		user, err := s.resolveUser(ctx, tx, input.Username)
		if err != nil {
			return err
		}

		at := s.clock.Now()
		if input.Time != nil {
			at = *input.Time
		}

		drink := &models.Drink{
			Ticks:    input.Ticks,
			Volume:   volume,
			Time:     at,
			Duration: input.Duration,
			UserID:   user.ID,
			KegID:    keg.ID,
			Shout:    input.Shout,
		}

		session, err := s.sessions.Assign(ctx, tx, drink)
		if err != nil {
			return err
		}

		drink.TickTimeSeries = normalizeTickTimeSeries(ctx, input.TickTimeSeries)
		if err := tx.CreateDrink(ctx, drink); err != nil {
			return err
		}

		if err := tx.AddKegVolume(ctx, &ledger.AddKegVolumeInput{KegID: keg.ID, Served: volume}); err != nil {
			return err
		}
		keg, err = tx.GetKeg(ctx, keg.ID)
		if err != nil {
			return err
		}

		if input.PhotoPath != "" {
			if err := s.attachPicture(ctx, tx, drink, input.PhotoPath); err != nil {
				return err
			}
		}

		created, err := s.events.ForDrink(ctx, tx, &events.DrinkInput{Drink: drink, Session: session, Keg: keg})
		if err != nil {
			return err
		}

		if s.mode == StatsModeSync {
			if err := s.stats.BuildForID(ctx, tx, drink.ID); err != nil {
				return err
			}
		}

		out.Drink = drink
		out.Session = session
		out.Keg = keg
		out.Events = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.Spilled {
		metrics.DrinksRecorded.WithLabelValues("spilled").Inc()
		logging.Ctx(ctx).Info().
			Int64("keg_id", out.Keg.ID).
			Float64("spilled_volume", out.Keg.SpilledVolume).
			Msg("recorded spill")
		s.afterCommit(ctx, nil, 0)
		return out, nil
	}

	metrics.DrinksRecorded.WithLabelValues("drink").Inc()
	metrics.VolumePoured.Add(out.Drink.Volume)
	logging.Ctx(ctx).Info().
		Int64("drink_id", out.Drink.ID).
		Int64("keg_id", out.Drink.KegID).
		Int64("session_id", out.Session.ID).
		Int64("user_id", out.Drink.UserID).
		Float64("volume", out.Drink.Volume).
		Msg("recorded drink")

	s.afterCommit(ctx, out.Events, out.Drink.ID)
	return out, nil
}

// CancelDrink removes a drink and returns its volume to the keg
func (s *service) CancelDrink(ctx context.Context, input *CancelDrinkInput) (out *CancelDrinkOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("cancel_drink", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	out = &CancelDrinkOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		drink, err := tx.GetDrink(ctx, input.DrinkID)
		if err != nil {
			return err
		}

		delta := &ledger.AddKegVolumeInput{KegID: drink.KegID, Served: -drink.Volume}
		if input.Spilled {
			delta.Spilled = drink.Volume
		}
		if err := tx.AddKegVolume(ctx, delta); err != nil {
			return err
		}

		if drink.PictureID != nil {
			if err := tx.DeletePicture(ctx, *drink.PictureID); err != nil {
				return err
			}
		}

		if err := tx.DetachDrinkEvents(ctx, drink.ID); err != nil {
			return err
		}

		if err := tx.DeleteStatsForDrink(ctx, drink.ID); err != nil {
			return err
		}

		if err := tx.DeleteDrink(ctx, drink.ID); err != nil {
			return err
		}

		if drink.SessionID != nil {
			out.Session, err = s.sessions.Rebuild(ctx, tx, *drink.SessionID)
			if err != nil {
				return err
			}
		}

		if err := s.rebuildStats(ctx, tx, drink.ID); err != nil {
			return err
		}

		out.Keg, err = tx.GetKeg(ctx, drink.KegID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.DrinksCancelled.Inc()
	logging.Ctx(ctx).Info().
		Int64("drink_id", input.DrinkID).
		Int64("keg_id", out.Keg.ID).
		Bool("spilled", input.Spilled).
		Msg("cancelled drink")

	s.afterCommit(ctx, nil, input.DrinkID)
	return out, nil
}

// AssignDrink changes the owner of a drink
func (s *service) AssignDrink(ctx context.Context, input *AssignDrinkInput) (out *AssignDrinkOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("assign_drink", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	out = &AssignDrinkOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		drink, err := tx.GetDrink(ctx, input.DrinkID)
		if err != nil {
			return err
		}
		out.Drink = drink

		user, err := tx.GetUserByUsername(ctx, input.Username)
		if err != nil {
			return err
		}

		if drink.UserID == user.ID {
			return nil
		}

		drink.UserID = user.ID
		if err := tx.UpdateDrink(ctx, drink); err != nil {
			return err
		}

		if err := tx.ReassignDrinkEvents(ctx, drink.ID, user.ID); err != nil {
			return err
		}

		if drink.PictureID != nil {
			if err := tx.SetPictureUser(ctx, *drink.PictureID, user.ID); err != nil {
				return err
			}
		}

		if drink.SessionID != nil {
			if _, err := s.sessions.Rebuild(ctx, tx, *drink.SessionID); err != nil {
				return err
			}
		}

		joined, err := s.events.SessionJoined(ctx, tx, drink)
		if err != nil {
			return err
		}
		if joined != nil {
			out.Events = append(out.Events, joined)
		}

		out.Changed = true
		return s.rebuildStats(ctx, tx, drink.ID)
	})
	if err != nil {
		return nil, err
	}

	if !out.Changed {
		return out, nil
	}

	logging.Ctx(ctx).Info().
		Int64("drink_id", out.Drink.ID).
		Int64("user_id", out.Drink.UserID).
		Msg("reassigned drink")

	s.afterCommit(ctx, out.Events, out.Drink.ID)
	return out, nil
}

// SetDrinkVolume corrects the volume of a drink
func (s *service) SetDrinkVolume(ctx context.Context, input *SetDrinkVolumeInput) (out *SetDrinkVolumeOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("set_drink_volume", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	out = &SetDrinkVolumeOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		drink, err := tx.GetDrink(ctx, input.DrinkID)
		if err != nil {
			return err
		}
		out.Drink = drink

		if drink.Volume == input.Volume {
			out.Keg, err = tx.GetKeg(ctx, drink.KegID)
			return err
		}

		delta := input.Volume - drink.Volume
		if err := tx.AddKegVolume(ctx, &ledger.AddKegVolumeInput{KegID: drink.KegID, Served: delta}); err != nil {
			return err
		}

		drink.Volume = input.Volume
		if err := tx.UpdateDrink(ctx, drink); err != nil {
			return err
		}

		if drink.SessionID != nil {
			if _, err := s.sessions.Rebuild(ctx, tx, *drink.SessionID); err != nil {
				return err
			}
		}

		keg, err := tx.GetKeg(ctx, drink.KegID)
		if err != nil {
			return err
		}
		out.Keg = keg

		low, err := s.events.KegVolumeLow(ctx, tx, keg, drink, delta)
		if err != nil {
			return err
		}
		if low != nil {
			out.Events = append(out.Events, low)
		}

		out.Changed = true
		return s.rebuildStats(ctx, tx, drink.ID)
	})
	if err != nil {
		return nil, err
	}

	if !out.Changed {
		return out, nil
	}

	logging.Ctx(ctx).Info().
		Int64("drink_id", out.Drink.ID).
		Int64("keg_id", out.Drink.KegID).
		Float64("volume", out.Drink.Volume).
		Msg("corrected drink volume")

	s.afterCommit(ctx, out.Events, out.Drink.ID)
	return out, nil
}

// resolveTap finds the tap by name, or by meter name when no tap name is given
func (s *service) resolveTap(ctx context.Context, tx ledger.Tx, input *RecordDrinkInput) (*models.Tap, error) {
	if input.TapName != "" {
		return tx.GetTap(ctx, input.TapName)
	}
	return tx.GetTapByMeter(ctx, input.MeterName)
}

// activeKeg returns the keg currently on the tap
func (s *service) activeKeg(ctx context.Context, tx ledger.Tx, tap *models.Tap) (*models.Keg, error) {
	if !tap.IsActive() {
		return nil, fmt.Errorf("%w: tap %s has no keg", errkind.ErrState, tap.Name)
	}

	keg, err := tx.GetKeg(ctx, *tap.CurrentKegID)
	if err != nil {
		return nil, err
	}

	if keg.Status != models.KegStatusOnTap {
		return nil, fmt.Errorf("%w: keg %d on tap %s is %s", errkind.ErrState, keg.ID, tap.Name, keg.Status)
	}

	return keg, nil
}

// resolveVolume prefers an explicit volume and otherwise converts ticks with
// the tap's calibration
func resolveVolume(tap *models.Tap, input *RecordDrinkInput) (float64, error) {
	if input.Volume != nil {
		return *input.Volume, nil
	}

	if tap.TicksPerUnit <= 0 {
		return 0, fmt.Errorf("%w: tap %s has no ticks per unit configured", errkind.ErrConfiguration, tap.Name)
	}

	return roundVolume(float64(input.Ticks) / tap.TicksPerUnit), nil
}

// volumePrecision is the number of volume units per stored step
const volumePrecision = 1e6

// roundVolume drops the floating point noise of a tick conversion
func roundVolume(v float64) float64 {
	return math.Round(v*volumePrecision) / volumePrecision
}

// resolveUser looks up the drinker, defaulting to the guest user
func (s *service) resolveUser(ctx context.Context, tx ledger.Tx, username string) (*models.User, error) {
	if username == "" {
		username = models.GuestUsername
	}
	return tx.GetUserByUsername(ctx, username)
}

// attachPicture stores the photo of a drink, owned by the drink's user
func (s *service) attachPicture(ctx context.Context, tx ledger.Tx, drink *models.Drink, path string) error {
	picture := &models.Picture{
		Path:      path,
		UserID:    drink.UserID,
		KegID:     &drink.KegID,
		SessionID: drink.SessionID,
		DrinkID:   &drink.ID,
		Time:      drink.Time,
	}
	if err := tx.CreatePicture(ctx, picture); err != nil {
		return err
	}

	drink.PictureID = &picture.ID
	return tx.UpdateDrink(ctx, drink)
}

// normalizeTickTimeSeries returns the canonical form of a tick series, or an
// empty string when the series is malformed
func normalizeTickTimeSeries(ctx context.Context, raw string) string {
	if raw == "" {
		return ""
	}

	samples, err := ParseTickTimeSeries(raw)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("dropping malformed tick time series")
		return ""
	}
	return FormatTickTimeSeries(samples)
}

// rebuildStats regenerates stats from drinkID forward inside the transaction
// in sync mode. Deferred mode enqueues after commit instead.
func (s *service) rebuildStats(ctx context.Context, tx ledger.Tx, drinkID int64) error {
	if s.mode != StatsModeSync {
		return nil
	}
	return s.stats.RebuildFromID(ctx, tx, drinkID)
}

// afterCommit runs the side effects of a committed operation. None of them
// can fail the operation.
func (s *service) afterCommit(ctx context.Context, created []*models.SystemEvent, rebuildFrom int64) {
	if s.mode == StatsModeDeferred && rebuildFrom > 0 {
		s.queue.Enqueue(rebuildFrom)
	}

	if s.dispatcher != nil && len(created) > 0 {
		s.dispatcher.Dispatch(ctx, created)
	}

	_, err := s.generation.Update(ctx)
	metrics.RecordGenerationBump(err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to bump cache generation")
	}
}

// observe records the duration and outcome of an operation
func (s *service) observe(operation string, start time.Time, err *error) {
	metrics.RecordOperation(operation, time.Since(start), *err)
	if *err != nil && !isExpected(*err) {
		logging.Error().Err(*err).Str("operation", operation).Msg("backend operation failed")
	}
}

// isExpected reports whether err is a caller error rather than a fault
func isExpected(err error) bool {
	return errors.Is(err, errkind.ErrNotFound) ||
		errors.Is(err, errkind.ErrState) ||
		errors.Is(err, errkind.ErrValidation) ||
		errors.Is(err, errkind.ErrConfiguration)
}
