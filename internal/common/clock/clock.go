package clock

import "time"

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/KirkDiggler/kegledger/internal/common/clock Clock
type Clock interface {
	Now() time.Time
}

// System implements the Clock interface using the system clock in UTC
type System struct{}

// New returns the system clock
func New() *System {
	return &System{}
}

// Now returns the current time in UTC
func (c *System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that always returns the same instant. Useful for replaying
// pours with a known timestamp.
type Fixed struct {
	At time.Time
}

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return f.At
}
