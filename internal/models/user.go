package models

// GuestUsername is the well-known identity anonymous pours are recorded against
const GuestUsername = "guest"

// User represents a drinker
type User struct {
	// ID is the unique identifier for the user
	ID int64 `db:"id" json:"id"`

	// Username is the unique login name of the user
	Username string `db:"username" json:"username"`

	// IsGuest marks the anonymous guest identity
	IsGuest bool `db:"is_guest" json:"is_guest"`
}
