// Package sessions groups drinks into drinking sessions. A drink joins the
// most recent session while it arrives before that session's end, otherwise it
// opens a new one. A session's end is always its latest drink plus the idle
// timeout.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

// DefaultIdleTimeout is the gap after which a new session starts
const DefaultIdleTimeout = 90 * time.Minute

// Config holds configuration for session assignment
type Config struct {
	// IdleTimeout is how long a session stays open after its latest drink
	IdleTimeout time.Duration

	// TimeZone is the site time zone captured on new sessions
	TimeZone string
}

// Service assigns drinks to sessions and rebuilds sessions after edits
type Service struct {
	idle     time.Duration
	timeZone string
}

// New creates a session service
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.IdleTimeout < 0 {
		return nil, fmt.Errorf("%w: idle timeout cannot be negative", errkind.ErrValidation)
	}

	idle := cfg.IdleTimeout
	if idle == 0 {
		idle = DefaultIdleTimeout
	}

	tz := cfg.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", errkind.ErrConfiguration, tz)
	}

	return &Service{idle: idle, timeZone: tz}, nil
}

// IdleTimeout returns the configured idle timeout
func (s *Service) IdleTimeout() time.Duration {
	return s.idle
}

// Assign places the drink in the latest session when the drink arrives before
// that session ends, or in a new session otherwise. Only the single most
// recent session is considered, so drinks are expected to arrive roughly in
// time order. The drink's SessionID is set; the drink itself is not saved.
func (s *Service) Assign(ctx context.Context, tx ledger.Tx, drink *models.Drink) (*models.DrinkingSession, error) {
	if drink == nil {
		return nil, errors.New("drink cannot be nil")
	}

	latest, err := tx.LatestSession(ctx)
	if err != nil {
		return nil, err
	}

	if latest != nil && latest.IsActive(drink.Time) {
		s.extend(latest, drink)
		if err := tx.UpdateSession(ctx, latest); err != nil {
			return nil, err
		}
		drink.SessionID = &latest.ID
		return latest, nil
	}

	session := &models.DrinkingSession{
		StartTime: drink.Time,
		EndTime:   drink.Time,
		TimeZone:  s.timeZone,
	}
	s.extend(session, drink)
	if err := tx.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Int64("session_id", session.ID).
		Time("start_time", session.StartTime).
		Msg("started drinking session")

	drink.SessionID = &session.ID
	return session, nil
}

func (s *Service) extend(session *models.DrinkingSession, drink *models.Drink) {
	if drink.Time.Before(session.StartTime) {
		session.StartTime = drink.Time
	}
	if end := drink.Time.Add(s.idle); end.After(session.EndTime) {
		session.EndTime = end
	}
	session.Volume += drink.Volume
}

// Rebuild recomputes the session's bounds and volume from its remaining
// drinks. A session without drinks is deleted and nil is returned.
func (s *Service) Rebuild(ctx context.Context, tx ledger.Tx, sessionID int64) (*models.DrinkingSession, error) {
	session, err := tx.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	drinks, err := tx.ListSessionDrinks(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(drinks) == 0 {
		if err := tx.DeleteSession(ctx, sessionID); err != nil {
			return nil, err
		}
		logging.Ctx(ctx).Debug().Int64("session_id", sessionID).Msg("deleted empty drinking session")
		return nil, nil
	}

	session.StartTime = drinks[0].Time
	session.EndTime = drinks[0].Time
	session.Volume = 0
	for _, drink := range drinks {
		s.extend(session, drink)
	}

	if err := tx.UpdateSession(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
