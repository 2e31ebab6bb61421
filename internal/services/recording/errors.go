package recording

// RecordingError is a custom error type for backend construction errors
type RecordingError string

// Error implements the error interface
func (e RecordingError) Error() string {
	return string(e)
}

// Define errors
const (
	ErrNilConfig     RecordingError = "config cannot be nil"
	ErrNilStore      RecordingError = "ledger store cannot be nil"
	ErrNilSessions   RecordingError = "session service cannot be nil"
	ErrNilStats      RecordingError = "stats builder cannot be nil"
	ErrNilEvents     RecordingError = "event builder cannot be nil"
	ErrNilClock      RecordingError = "clock cannot be nil"
	ErrNilGeneration RecordingError = "generation updater cannot be nil"
	ErrNilStatsQueue RecordingError = "stats queue is required in deferred stats mode"
	ErrBadStatsMode  RecordingError = "stats mode must be sync or deferred"
)
