package recording

import (
	"context"
	"time"

	"github.com/KirkDiggler/kegledger/internal/common/clock"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/repositories/ledger"
	"github.com/KirkDiggler/kegledger/internal/services/events"
	"github.com/KirkDiggler/kegledger/internal/services/sessions"
	"github.com/KirkDiggler/kegledger/internal/services/stats"
)

// StatsMode selects when stats are rebuilt after a mutation
type StatsMode string

const (
	// StatsModeSync builds stats inside the mutating transaction
	StatsModeSync StatsMode = "sync"

	// StatsModeDeferred queues the rebuild to run in its own transaction
	StatsModeDeferred StatsMode = "deferred"
)

// StatsQueue accepts deferred stats rebuild requests
type StatsQueue interface {
	Enqueue(drinkID int64)
}

// Dispatcher delivers committed events to collaborators
type Dispatcher interface {
	Dispatch(ctx context.Context, events []*models.SystemEvent)
}

// GenerationUpdater bumps the cache generation after a committed change
type GenerationUpdater interface {
	Update(ctx context.Context) (int64, error)
}

// Config holds configuration for the recording backend
type Config struct {
	// Store is the ledger every operation runs against
	Store ledger.Store

	// Sessions assigns and rebuilds drinking sessions
	Sessions *sessions.Service

	// Stats builds stats rows in sync mode
	Stats *stats.Builder

	// Events creates system events
	Events *events.Builder

	// Clock supplies default drink and keg times
	Clock clock.Clock

	// Generation is bumped after every committed change
	Generation GenerationUpdater

	// StatsMode defaults to StatsModeSync
	StatsMode StatsMode

	// StatsQueue receives rebuild requests in deferred mode
	StatsQueue StatsQueue

	// Dispatcher receives the events of every operation; optional
	Dispatcher Dispatcher
}

// RecordDrinkInput contains parameters for recording a pour
type RecordDrinkInput struct {
	// TapName identifies the tap; MeterName is used when it is empty
	TapName string `json:"tap_name" validate:"required_without=MeterName"`

	// MeterName identifies the tap by its flow meter
	MeterName string `json:"meter_name"`

	// Ticks is the number of meter ticks of the pour
	Ticks int64 `json:"ticks" validate:"gte=0"`

	// Volume overrides the volume derived from Ticks
	Volume *float64 `json:"volume,omitempty" validate:"omitnil,gte=0"`

	// Username is the drinker; empty records the pour for the guest user
	Username string `json:"username"`

	// Time defaults to now
	Time *time.Time `json:"time,omitempty"`

	// Duration is the length of the pour in seconds
	Duration int64 `json:"duration" validate:"gte=0"`

	// Shout is a comment attached to the drink
	Shout string `json:"shout" validate:"max=140"`

	// PhotoPath attaches a picture to the drink
	PhotoPath string `json:"photo_path"`

	// TickTimeSeries is the raw "offset_ms:ticks" series reported by the meter
	TickTimeSeries string `json:"tick_time_series"`

	// Spilled adds the volume to the keg's spilled total without creating a drink
	Spilled bool `json:"spilled"`
}

// RecordDrinkOutput contains the result of recording a pour
type RecordDrinkOutput struct {
	// Drink is nil when the pour was recorded as spilled
	Drink *models.Drink `json:"drink,omitempty"`

	// Session is the drink's session
	Session *models.DrinkingSession `json:"session,omitempty"`

	// Keg is the keg after the pour
	Keg *models.Keg `json:"keg,omitempty"`

	// Events were created by the pour
	Events []*models.SystemEvent `json:"events,omitempty"`

	// Spilled reports that no drink was created
	Spilled bool `json:"spilled"`
}

// CancelDrinkInput contains parameters for cancelling a drink
type CancelDrinkInput struct {
	DrinkID int64 `json:"drink_id" validate:"gt=0"`

	// Spilled moves the drink's volume to the keg's spilled total
	Spilled bool `json:"spilled"`
}

// CancelDrinkOutput contains the result of cancelling a drink
type CancelDrinkOutput struct {
	// Keg is the keg after its volume was restored
	Keg *models.Keg `json:"keg,omitempty"`

	// Session is the rebuilt session, nil when it was deleted
	Session *models.DrinkingSession `json:"session,omitempty"`
}

// AssignDrinkInput contains parameters for reassigning a drink
type AssignDrinkInput struct {
	DrinkID int64 `json:"drink_id" validate:"gt=0"`

	// Username is the new owner; use the guest username to make a drink anonymous
	Username string `json:"username" validate:"required"`
}

// AssignDrinkOutput contains the result of reassigning a drink
type AssignDrinkOutput struct {
	Drink *models.Drink `json:"drink,omitempty"`

	// Events holds the session-joined event of the new owner, when created
	Events []*models.SystemEvent `json:"events,omitempty"`

	// Changed is false when the drink already belonged to the user
	Changed bool `json:"changed"`
}

// SetDrinkVolumeInput contains parameters for correcting a drink's volume
type SetDrinkVolumeInput struct {
	DrinkID int64   `json:"drink_id" validate:"gt=0"`
	Volume  float64 `json:"volume" validate:"gte=0"`
}

// SetDrinkVolumeOutput contains the result of a volume correction
type SetDrinkVolumeOutput struct {
	Drink *models.Drink `json:"drink,omitempty"`
	Keg   *models.Keg   `json:"keg,omitempty"`

	// Events holds keg-volume-low when the correction crossed the threshold
	Events []*models.SystemEvent `json:"events,omitempty"`

	// Changed is false when the volume was already set
	Changed bool `json:"changed"`
}

// StartKegInput contains parameters for starting a keg
type StartKegInput struct {
	TapName    string  `json:"tap_name" validate:"required"`
	Beverage   string  `json:"beverage" validate:"required"`
	FullVolume float64 `json:"full_volume" validate:"gt=0"`
	Notes      string  `json:"notes"`

	// Time defaults to now
	Time *time.Time `json:"time,omitempty"`
}

// StartKegOutput contains the result of starting a keg
type StartKegOutput struct {
	Keg *models.Keg `json:"keg,omitempty"`

	// Previous is the keg that was ended to free the tap, if any
	Previous *models.Keg `json:"previous,omitempty"`

	Events []*models.SystemEvent `json:"events,omitempty"`
}

// ConnectKegInput contains parameters for attaching a keg to a tap
type ConnectKegInput struct {
	TapName string `json:"tap_name" validate:"required"`
	KegID   int64  `json:"keg_id" validate:"gt=0"`
}

// ConnectKegOutput contains the result of attaching a keg
type ConnectKegOutput struct {
	Keg    *models.Keg           `json:"keg,omitempty"`
	Events []*models.SystemEvent `json:"events,omitempty"`
}

// DisconnectKegInput contains parameters for detaching a tap's keg
type DisconnectKegInput struct {
	TapName string `json:"tap_name" validate:"required"`
}

// DisconnectKegOutput contains the result of detaching a keg
type DisconnectKegOutput struct {
	Keg *models.Keg `json:"keg,omitempty"`
}

// EndKegInput contains parameters for finishing a keg
type EndKegInput struct {
	KegID int64 `json:"keg_id" validate:"gt=0"`

	// Time defaults to now
	Time *time.Time `json:"time,omitempty"`
}

// EndKegOutput contains the result of finishing a keg
type EndKegOutput struct {
	Keg    *models.Keg           `json:"keg,omitempty"`
	Events []*models.SystemEvent `json:"events,omitempty"`
}
