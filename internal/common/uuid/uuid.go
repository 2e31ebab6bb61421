package uuid

import "github.com/google/uuid"

//go:generate mockgen -package=mocks -destination=mocks/mock_uuid.go github.com/KirkDiggler/kegledger/internal/common/uuid UUID

// UUID generates identifiers for outbound event messages
type UUID interface {
	NewUUID() string
}

// Random implements the UUID interface with random (v4) UUIDs
type Random struct{}

// New returns a random UUID generator
func New() *Random {
	return &Random{}
}

// NewUUID returns a new UUID string
func (r *Random) NewUUID() string {
	return uuid.New().String()
}
