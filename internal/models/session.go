package models

import (
	"time"
)

// DrinkingSession groups drinks poured close together in time
type DrinkingSession struct {
	// ID is the unique identifier for this session
	ID int64 `db:"id" json:"id"`

	// StartTime is the time of the earliest drink in the session
	StartTime time.Time `db:"start_time" json:"start_time"`

	// EndTime is the time of the latest drink plus the idle timeout
	EndTime time.Time `db:"end_time" json:"end_time"`

	// Volume is the total volume of the session's drinks
	Volume float64 `db:"volume" json:"volume"`

	// Name is an optional display name
	Name string `db:"name" json:"name"`

	// TimeZone is the site time zone captured when the session was created
	TimeZone string `db:"time_zone" json:"time_zone"`
}

// IsActive reports whether a drink poured at t still belongs to the session
func (s *DrinkingSession) IsActive(t time.Time) bool {
	return t.Before(s.EndTime)
}

// Location returns the captured time zone, falling back to UTC when the name
// cannot be loaded.
func (s *DrinkingSession) Location() *time.Location {
	if s.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
