package models

import (
	"time"
)

// EventKind identifies a ledger state transition
type EventKind string

const (
	// EventKegTapped is emitted once when a keg goes on tap
	EventKegTapped EventKind = "keg_tapped"

	// EventKegEnded is emitted once when a keg is finished
	EventKegEnded EventKind = "keg_ended"

	// EventSessionStarted is emitted once per session, attributed to its first drink
	EventSessionStarted EventKind = "session_started"

	// EventSessionJoined is emitted once per user per session
	EventSessionJoined EventKind = "session_joined"

	// EventDrinkPoured is emitted for every drink
	EventDrinkPoured EventKind = "drink_poured"

	// EventKegVolumeLow is emitted once when a keg drops below the low volume threshold
	EventKegVolumeLow EventKind = "keg_volume_low"
)

// SystemEvent is a notification of a ledger state transition
type SystemEvent struct {
	// ID is the unique identifier for the event
	ID int64 `db:"id" json:"id"`

	// Kind is the type of transition
	Kind EventKind `db:"kind" json:"kind"`

	// Time is when the transition happened
	Time time.Time `db:"time" json:"time"`

	// UserID is the user involved, if any
	UserID *int64 `db:"user_id" json:"user_id,omitempty"`

	// DrinkID is the drink involved, if any
	DrinkID *int64 `db:"drink_id" json:"drink_id,omitempty"`

	// KegID is the keg involved, if any
	KegID *int64 `db:"keg_id" json:"keg_id,omitempty"`

	// SessionID is the session involved, if any
	SessionID *int64 `db:"session_id" json:"session_id,omitempty"`
}
