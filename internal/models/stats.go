package models

import (
	"time"

	"github.com/goccy/go-json"
)

// ViewKind identifies which combination of user, keg and session a stats row aggregates over
type ViewKind string

const (
	ViewSystem         ViewKind = "system"
	ViewUser           ViewKind = "user"
	ViewKeg            ViewKind = "keg"
	ViewSession        ViewKind = "session"
	ViewUserKeg        ViewKind = "user_keg"
	ViewUserSession    ViewKind = "user_session"
	ViewKegSession     ViewKind = "keg_session"
	ViewUserKegSession ViewKind = "user_keg_session"
)

// Stats is an immutable snapshot of one view's statistics as of a drink
type Stats struct {
	// ID is the unique identifier for the row
	ID int64 `db:"id" json:"id"`

	// DrinkID is the drink this snapshot includes as its latest contribution
	DrinkID int64 `db:"drink_id" json:"drink_id"`

	// View is the kind of view
	View ViewKind `db:"view_kind" json:"view"`

	// ViewKey is the deterministic lookup key of the view
	ViewKey string `db:"view_key" json:"view_key"`

	// UserID is set for views scoped to a user
	UserID *int64 `db:"user_id" json:"user_id,omitempty"`

	// KegID is set for views scoped to a keg
	KegID *int64 `db:"keg_id" json:"keg_id,omitempty"`

	// SessionID is set for views scoped to a session
	SessionID *int64 `db:"session_id" json:"session_id,omitempty"`

	// Time is the time of the drink
	Time time.Time `db:"time" json:"time"`

	// Payload is the JSON encoded Snapshot
	Payload []byte `db:"payload" json:"-"`
}

// Snapshot decodes the row payload
func (s *Stats) Snapshot() (*Snapshot, error) {
	snap := NewSnapshot()
	if len(s.Payload) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(s.Payload, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// LargestSession identifies the session with the most volume seen by a view
type LargestSession struct {
	SessionID int64   `json:"session_id"`
	Volume    float64 `json:"volume"`
}

// Snapshot holds the derived statistics of a view
type Snapshot struct {
	TotalVolume        float64            `json:"total_volume"`
	TotalPours         int64              `json:"total_pours"`
	AverageVolume      float64            `json:"average_volume"`
	GreatestVolume     float64            `json:"greatest_volume"`
	GreatestVolumeID   int64              `json:"greatest_volume_id"`
	SmallestVolume     float64            `json:"smallest_volume"`
	SmallestVolumeID   int64              `json:"smallest_volume_id"`
	VolumeByDayOfWeek  map[string]float64 `json:"volume_by_day_of_week"`
	VolumeByYear       map[string]float64 `json:"volume_by_year"`
	VolumeByDrinker    map[string]float64 `json:"volume_by_drinker"`
	VolumeBySession    map[string]float64 `json:"volume_by_session"`
	HasGuestPour       bool               `json:"has_guest_pour"`
	RegisteredDrinkers []string           `json:"registered_drinkers"`
	SessionsCount      int64              `json:"sessions_count"`
	LargestSession     LargestSession     `json:"largest_session"`
	FirstDrinkID       int64              `json:"first_drink_id"`
	LastDrinkID        int64              `json:"last_drink_id"`
}

// NewSnapshot returns the empty snapshot used when a view has no prior row
func NewSnapshot() *Snapshot {
	return &Snapshot{
		VolumeByDayOfWeek:  map[string]float64{},
		VolumeByYear:       map[string]float64{},
		VolumeByDrinker:    map[string]float64{},
		VolumeBySession:    map[string]float64{},
		RegisteredDrinkers: []string{},
	}
}

// Encode returns the JSON form stored in Stats.Payload
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}
