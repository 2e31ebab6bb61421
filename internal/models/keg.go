package models

import (
	"time"
)

// KegStatus represents the lifecycle state of a keg
type KegStatus string

const (
	// KegStatusAvailable indicates a keg that is not attached to any tap
	KegStatusAvailable KegStatus = "available"

	// KegStatusOnTap indicates a keg currently attached to a tap
	KegStatusOnTap KegStatus = "on_tap"

	// KegStatusFinished indicates a keg that has been ended and can no longer be poured
	KegStatusFinished KegStatus = "finished"
)

// Keg represents one physical beverage container
type Keg struct {
	// ID is the unique identifier for the keg
	ID int64 `db:"id" json:"id"`

	// Beverage is the name of the beverage in the keg
	Beverage string `db:"beverage" json:"beverage"`

	// FullVolume is the configured volume of a full keg
	FullVolume float64 `db:"full_volume" json:"full_volume"`

	// ServedVolume is the cumulative volume of recorded drinks
	ServedVolume float64 `db:"served_volume" json:"served_volume"`

	// SpilledVolume is the cumulative volume lost to spills
	SpilledVolume float64 `db:"spilled_volume" json:"spilled_volume"`

	// Status is the lifecycle state of the keg
	Status KegStatus `db:"status" json:"status"`

	// StartTime is when the keg was started
	StartTime time.Time `db:"start_time" json:"start_time"`

	// EndTime is when the keg was ended, nil while it is still in service
	EndTime *time.Time `db:"end_time" json:"end_time,omitempty"`

	// Notes is free text about the keg
	Notes string `db:"notes" json:"notes"`
}

// RemainingVolume returns the volume left in the keg. It goes negative when
// more was poured than the keg was configured to hold.
func (k *Keg) RemainingVolume() float64 {
	return k.FullVolume - k.ServedVolume - k.SpilledVolume
}

// IsOverPoured reports whether served and spilled volume exceed the full volume
func (k *Keg) IsOverPoured() bool {
	return k.RemainingVolume() < 0
}

// PercentFull returns the remaining volume as a percentage of the full volume
func (k *Keg) PercentFull() float64 {
	if k.FullVolume <= 0 {
		return 0
	}
	return k.RemainingVolume() / k.FullVolume * 100
}

// Tap represents a physical dispensing point
type Tap struct {
	// ID is the unique identifier for the tap
	ID int64 `db:"id" json:"id"`

	// Name is the unique display name of the tap
	Name string `db:"name" json:"name"`

	// MeterName is the name of the flow meter reporting for this tap
	MeterName *string `db:"meter_name" json:"meter_name,omitempty"`

	// TicksPerUnit is the number of meter ticks per volume unit; zero when unconfigured
	TicksPerUnit float64 `db:"ticks_per_unit" json:"ticks_per_unit"`

	// CurrentKegID is the keg attached to the tap, nil when the tap is idle
	CurrentKegID *int64 `db:"current_keg_id" json:"current_keg_id,omitempty"`
}

// IsActive reports whether a keg is attached to the tap
func (t *Tap) IsActive() bool {
	return t.CurrentKegID != nil
}
