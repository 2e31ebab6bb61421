// Package errkind defines the error kinds shared by the ledger, its repositories
// and the recording backend. Concrete errors wrap one of the kinds so callers can
// branch with errors.Is.
package errkind

// Kind is a category of ledger failure
type Kind string

// Error implements the error interface
func (k Kind) Error() string {
	return string(k)
}

const (
	// ErrConfiguration indicates required configuration (such as a tap's tick ratio) is missing
	ErrConfiguration Kind = "configuration error"

	// ErrNotFound indicates a referenced tap, keg, user or drink does not exist
	ErrNotFound Kind = "not found"

	// ErrState indicates the operation is invalid for the current lifecycle state
	ErrState Kind = "invalid state"

	// ErrValidation indicates malformed input
	ErrValidation Kind = "validation error"
)
