package ledger

import "github.com/KirkDiggler/kegledger/internal/models"

// ListDrinksFromInput contains parameters for paging through drinks in ID order
type ListDrinksFromInput struct {
	// FromID is the smallest drink ID to return
	FromID int64

	// Limit is the maximum number of drinks to return
	Limit int
}

// AddKegVolumeInput contains relative volume changes for a keg
type AddKegVolumeInput struct {
	// KegID is the keg to update
	KegID int64

	// Served is added to the served volume (may be negative)
	Served float64

	// Spilled is added to the spilled volume (may be negative)
	Spilled float64
}

// HasEventInput contains parameters for checking whether an event exists.
// Nil scope fields are not constrained.
type HasEventInput struct {
	Kind      models.EventKind
	KegID     *int64
	SessionID *int64
	UserID    *int64
	DrinkID   *int64
}

// ListEventsInput contains parameters for listing events
type ListEventsInput struct {
	// AfterID only returns events with a larger ID
	AfterID int64

	// Kind optionally restricts the events returned
	Kind models.EventKind

	// Limit is the maximum number of events to return; zero means no limit
	Limit int
}

// CreateTapInput contains parameters for registering a tap
type CreateTapInput struct {
	// Name is the unique tap name
	Name string

	// MeterName is the optional name of the flow meter feeding the tap
	MeterName string

	// TicksPerUnit is the meter calibration; zero leaves the tap unconfigured
	TicksPerUnit float64
}
