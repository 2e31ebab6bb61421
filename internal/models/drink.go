package models

import (
	"time"
)

// Drink records a single pour
type Drink struct {
	// ID is the monotonic identifier for the drink
	ID int64 `db:"id" json:"id"`

	// Ticks is the number of flow meter ticks reported for the pour
	Ticks int64 `db:"ticks" json:"ticks"`

	// Volume is the poured volume
	Volume float64 `db:"volume" json:"volume"`

	// Time is when the pour finished
	Time time.Time `db:"time" json:"time"`

	// Duration is the length of the pour in seconds
	Duration int64 `db:"duration" json:"duration"`

	// UserID is the drinker; anonymous pours belong to the guest user
	UserID int64 `db:"user_id" json:"user_id"`

	// KegID is the keg the drink was poured from
	KegID int64 `db:"keg_id" json:"keg_id"`

	// SessionID is the drinking session the drink belongs to
	SessionID *int64 `db:"session_id" json:"session_id,omitempty"`

	// Shout is a free text comment attached to the pour
	Shout string `db:"shout" json:"shout"`

	// TickTimeSeries is the diagnostic series of tick readings taken during the pour
	TickTimeSeries string `db:"tick_time_series" json:"tick_time_series,omitempty"`

	// PictureID is the photo attached to the pour, if any
	PictureID *int64 `db:"picture_id" json:"picture_id,omitempty"`
}

// Picture is a photo uploaded alongside a pour
type Picture struct {
	// ID is the unique identifier for the picture
	ID int64 `db:"id" json:"id"`

	// Path is the storage location of the image
	Path string `db:"path" json:"path"`

	// UserID is the owner of the picture, always the drink's user
	UserID int64 `db:"user_id" json:"user_id"`

	// KegID is the keg the picture was taken at
	KegID *int64 `db:"keg_id" json:"keg_id,omitempty"`

	// SessionID is the session the picture was taken in
	SessionID *int64 `db:"session_id" json:"session_id,omitempty"`

	// DrinkID is the drink the picture is attached to
	DrinkID *int64 `db:"drink_id" json:"drink_id,omitempty"`

	// Time is when the picture was taken
	Time time.Time `db:"time" json:"time"`
}
