package recording

import (
	"context"
	"fmt"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

// StartKeg puts a new keg on a tap. A keg already on the tap is detached and
// ended first.
func (s *service) StartKeg(ctx context.Context, input *StartKegInput) (out *StartKegOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("start_keg", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	at := s.clock.Now()
	if input.Time != nil {
		at = *input.Time
	}

	out = &StartKegOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		tap, err := tx.GetTap(ctx, input.TapName)
		if err != nil {
			return err
		}

		if tap.IsActive() {
			previous, err := tx.GetKeg(ctx, *tap.CurrentKegID)
			if err != nil {
				return err
			}
			if err := tx.SetTapKeg(ctx, tap.ID, nil); err != nil {
				return err
			}
			ended, err := s.finishKeg(ctx, tx, previous, at)
			if err != nil {
				return err
			}
			out.Previous = previous
			if ended != nil {
				out.Events = append(out.Events, ended)
			}
		}

		keg := &models.Keg{
			Beverage:   input.Beverage,
			FullVolume: input.FullVolume,
			Status:     models.KegStatusOnTap,
			StartTime:  at,
			Notes:      input.Notes,
		}
		if err := tx.CreateKeg(ctx, keg); err != nil {
			return err
		}

		if err := tx.SetTapKeg(ctx, tap.ID, &keg.ID); err != nil {
			return err
		}

		tapped, err := s.events.KegTapped(ctx, tx, keg)
		if err != nil {
			return err
		}
		if tapped != nil {
			out.Events = append(out.Events, tapped)
		}

		out.Keg = keg
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt := logging.Ctx(ctx).Info().
		Int64("keg_id", out.Keg.ID).
		Str("tap", input.TapName).
		Str("beverage", out.Keg.Beverage)
	if out.Previous != nil {
		evt = evt.Int64("previous_keg_id", out.Previous.ID)
	}
	evt.Msg("started keg")

	s.afterCommit(ctx, out.Events, 0)
	return out, nil
}

// ConnectKeg attaches an available keg to a free tap
func (s *service) ConnectKeg(ctx context.Context, input *ConnectKegInput) (out *ConnectKegOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("connect_keg", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	out = &ConnectKegOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		tap, err := tx.GetTap(ctx, input.TapName)
		if err != nil {
			return err
		}
		if tap.IsActive() {
			return fmt.Errorf("%w: tap %s already has keg %d", errkind.ErrState, tap.Name, *tap.CurrentKegID)
		}

		keg, err := tx.GetKeg(ctx, input.KegID)
		if err != nil {
			return err
		}
		if keg.Status != models.KegStatusAvailable {
			return fmt.Errorf("%w: keg %d is %s", errkind.ErrState, keg.ID, keg.Status)
		}

		attached, err := tx.GetTapForKeg(ctx, keg.ID)
		if err != nil {
			return err
		}
		if attached != nil {
			return fmt.Errorf("%w: keg %d is attached to tap %s", errkind.ErrState, keg.ID, attached.Name)
		}

		if err := tx.SetTapKeg(ctx, tap.ID, &keg.ID); err != nil {
			return err
		}

		keg.Status = models.KegStatusOnTap
		if err := tx.UpdateKeg(ctx, keg); err != nil {
			return err
		}

		tapped, err := s.events.KegTapped(ctx, tx, keg)
		if err != nil {
			return err
		}
		if tapped != nil {
			out.Events = append(out.Events, tapped)
		}

		out.Keg = keg
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("keg_id", out.Keg.ID).
		Str("tap", input.TapName).
		Msg("connected keg")

	s.afterCommit(ctx, out.Events, 0)
	return out, nil
}

// DisconnectKeg detaches the keg of a tap and makes it available again
func (s *service) DisconnectKeg(ctx context.Context, input *DisconnectKegInput) (out *DisconnectKegOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("disconnect_keg", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	out = &DisconnectKegOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		tap, err := tx.GetTap(ctx, input.TapName)
		if err != nil {
			return err
		}
		if !tap.IsActive() {
			return fmt.Errorf("%w: tap %s has no keg", errkind.ErrState, tap.Name)
		}

		keg, err := tx.GetKeg(ctx, *tap.CurrentKegID)
		if err != nil {
			return err
		}

		if err := tx.SetTapKeg(ctx, tap.ID, nil); err != nil {
			return err
		}

		keg.Status = models.KegStatusAvailable
		if err := tx.UpdateKeg(ctx, keg); err != nil {
			return err
		}

		out.Keg = keg
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("keg_id", out.Keg.ID).
		Str("tap", input.TapName).
		Msg("disconnected keg")

	s.afterCommit(ctx, nil, 0)
	return out, nil
}

// EndKeg finishes a keg that is no longer attached to a tap
func (s *service) EndKeg(ctx context.Context, input *EndKegInput) (out *EndKegOutput, err error) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	defer s.observe("end_keg", time.Now(), &err)

	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", errkind.ErrValidation)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	at := s.clock.Now()
	if input.Time != nil {
		at = *input.Time
	}

	out = &EndKegOutput{}
	err = s.store.WithTransaction(ctx, func(tx ledger.Tx) error {
		keg, err := tx.GetKeg(ctx, input.KegID)
		if err != nil {
			return err
		}
		if keg.Status == models.KegStatusFinished {
			return fmt.Errorf("%w: keg %d is already finished", errkind.ErrState, keg.ID)
		}

		tap, err := tx.GetTapForKeg(ctx, keg.ID)
		if err != nil {
			return err
		}
		if tap != nil {
			return fmt.Errorf("%w: keg %d is still attached to tap %s", errkind.ErrState, keg.ID, tap.Name)
		}

		ended, err := s.finishKeg(ctx, tx, keg, at)
		if err != nil {
			return err
		}
		if ended != nil {
			out.Events = append(out.Events, ended)
		}

		out.Keg = keg
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("keg_id", out.Keg.ID).
		Float64("served_volume", out.Keg.ServedVolume).
		Bool("over_poured", out.Keg.IsOverPoured()).
		Msg("ended keg")

	s.afterCommit(ctx, out.Events, 0)
	return out, nil
}

// finishKeg marks a detached keg finished and creates its keg-ended event
func (s *service) finishKeg(ctx context.Context, tx ledger.Tx, keg *models.Keg, at time.Time) (*models.SystemEvent, error) {
	keg.Status = models.KegStatusFinished
	keg.EndTime = &at
	if err := tx.UpdateKeg(ctx, keg); err != nil {
		return nil, err
	}
	return s.events.KegEnded(ctx, tx, keg, at)
}
