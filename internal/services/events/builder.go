// Package events derives system events from ledger changes. Every event kind
// has a scope it may occur in at most once (drink-poured excepted), checked
// against the ledger before insertion, so re-running a build never duplicates
// events.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
)

// DefaultLowVolumeThresholdPercent is the remaining share of a keg that triggers keg-volume-low
const DefaultLowVolumeThresholdPercent = 15.0

// Config holds configuration for the event builder
type Config struct {
	// LowVolumeThresholdPercent is the remaining percentage at or below which a keg is low
	LowVolumeThresholdPercent float64
}

// Builder creates system events inside a ledger transaction
type Builder struct {
	lowThreshold float64
}

// DrinkInput describes a freshly recorded drink
type DrinkInput struct {
	// Drink is the persisted drink with its session assigned
	Drink *models.Drink

	// Session is the drink's session after assignment
	Session *models.DrinkingSession

	// Keg is the keg after the drink's volume was added to it
	Keg *models.Keg
}

// NewBuilder creates an event builder
func NewBuilder(cfg *Config) (*Builder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	threshold := cfg.LowVolumeThresholdPercent
	if threshold == 0 {
		threshold = DefaultLowVolumeThresholdPercent
	}
	if threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: low volume threshold must be between 0 and 100", errkind.ErrValidation)
	}

	return &Builder{lowThreshold: threshold}, nil
}

// ForDrink creates the events caused by a new drink, in order: keg-tapped
// (when the keg has none yet), session-started, session-joined, drink-poured
// and keg-volume-low
func (b *Builder) ForDrink(ctx context.Context, tx ledger.Tx, input *DrinkInput) ([]*models.SystemEvent, error) {
	if input == nil || input.Drink == nil || input.Session == nil || input.Keg == nil {
		return nil, errors.New("drink, session and keg are required")
	}

	drink := input.Drink
	session := input.Session
	keg := input.Keg
	var created []*models.SystemEvent

	tapped, err := b.KegTapped(ctx, tx, keg)
	if err != nil {
		return nil, err
	}
	if tapped != nil {
		created = append(created, tapped)
	}

	started := &models.SystemEvent{
		Kind:      models.EventSessionStarted,
		Time:      session.StartTime,
		UserID:    &drink.UserID,
		DrinkID:   &drink.ID,
		KegID:     &keg.ID,
		SessionID: &session.ID,
	}
	ok, err := b.createOnce(ctx, tx, started, &ledger.HasEventInput{SessionID: &session.ID})
	if err != nil {
		return nil, err
	}
	if ok {
		created = append(created, started)
	}

	joined, err := b.SessionJoined(ctx, tx, drink)
	if err != nil {
		return nil, err
	}
	if joined != nil {
		created = append(created, joined)
	}

	poured := &models.SystemEvent{
		Kind:      models.EventDrinkPoured,
		Time:      drink.Time,
		UserID:    &drink.UserID,
		DrinkID:   &drink.ID,
		KegID:     &keg.ID,
		SessionID: &session.ID,
	}
	if err := tx.CreateEvent(ctx, poured); err != nil {
		return nil, err
	}
	created = append(created, poured)

	low, err := b.KegVolumeLow(ctx, tx, keg, drink, drink.Volume)
	if err != nil {
		return nil, err
	}
	if low != nil {
		created = append(created, low)
	}

	return created, nil
}

// SessionJoined creates the session-joined event of the drink's owner, or
// returns nil when the owner already joined the drink's session
func (b *Builder) SessionJoined(ctx context.Context, tx ledger.Tx, drink *models.Drink) (*models.SystemEvent, error) {
	if drink.SessionID == nil {
		return nil, nil
	}

	event := &models.SystemEvent{
		Kind:      models.EventSessionJoined,
		Time:      drink.Time,
		UserID:    &drink.UserID,
		DrinkID:   &drink.ID,
		KegID:     &drink.KegID,
		SessionID: drink.SessionID,
	}
	ok, err := b.createOnce(ctx, tx, event, &ledger.HasEventInput{SessionID: drink.SessionID, UserID: &drink.UserID})
	if err != nil || !ok {
		return nil, err
	}
	return event, nil
}

// KegVolumeLow creates the keg-volume-low event when serving delta more
// volume moved keg across the low threshold. keg must already include delta.
func (b *Builder) KegVolumeLow(ctx context.Context, tx ledger.Tx, keg *models.Keg, drink *models.Drink, delta float64) (*models.SystemEvent, error) {
	if !b.crossedLowThreshold(keg, delta) {
		return nil, nil
	}

	event := &models.SystemEvent{
		Kind:      models.EventKegVolumeLow,
		Time:      drink.Time,
		UserID:    &drink.UserID,
		DrinkID:   &drink.ID,
		KegID:     &keg.ID,
		SessionID: drink.SessionID,
	}
	ok, err := b.createOnce(ctx, tx, event, &ledger.HasEventInput{KegID: &keg.ID})
	if err != nil || !ok {
		return nil, err
	}
	return event, nil
}

// KegTapped creates the keg-tapped event of a keg, or returns nil when it exists
func (b *Builder) KegTapped(ctx context.Context, tx ledger.Tx, keg *models.Keg) (*models.SystemEvent, error) {
	event := &models.SystemEvent{
		Kind:  models.EventKegTapped,
		Time:  keg.StartTime,
		KegID: &keg.ID,
	}
	ok, err := b.createOnce(ctx, tx, event, &ledger.HasEventInput{KegID: &keg.ID})
	if err != nil || !ok {
		return nil, err
	}
	return event, nil
}

// KegEnded creates the keg-ended event of a keg, or returns nil when it exists
func (b *Builder) KegEnded(ctx context.Context, tx ledger.Tx, keg *models.Keg, at time.Time) (*models.SystemEvent, error) {
	event := &models.SystemEvent{
		Kind:  models.EventKegEnded,
		Time:  at,
		KegID: &keg.ID,
	}
	ok, err := b.createOnce(ctx, tx, event, &ledger.HasEventInput{KegID: &keg.ID})
	if err != nil || !ok {
		return nil, err
	}
	return event, nil
}

// crossedLowThreshold reports whether adding volume moved the keg's remaining
// volume from above the threshold to at or below it
func (b *Builder) crossedLowThreshold(keg *models.Keg, volume float64) bool {
	if keg.FullVolume <= 0 || volume <= 0 {
		return false
	}
	limit := keg.FullVolume * b.lowThreshold / 100
	after := keg.RemainingVolume()
	before := after + volume
	return before > limit && after <= limit
}

// createOnce inserts event unless one of its kind already exists in scope
func (b *Builder) createOnce(ctx context.Context, tx ledger.Tx, event *models.SystemEvent, scope *ledger.HasEventInput) (bool, error) {
	scope.Kind = event.Kind
	exists, err := tx.HasEvent(ctx, scope)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := tx.CreateEvent(ctx, event); err != nil {
		return false, err
	}
	return true, nil
}
