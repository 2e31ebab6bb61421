package ledger

import (
	"context"

	"github.com/KirkDiggler/kegledger/internal/models"
)

// Reader defines the read queries available both inside and outside a transaction
type Reader interface {
	// GetTap retrieves a tap by name
	GetTap(ctx context.Context, name string) (*models.Tap, error)

	// GetTapByMeter retrieves a tap by the name of its flow meter
	GetTapByMeter(ctx context.Context, meterName string) (*models.Tap, error)

	// GetTapForKeg retrieves the tap a keg is attached to, or nil when it is not attached
	GetTapForKeg(ctx context.Context, kegID int64) (*models.Tap, error)

	// GetKeg retrieves a keg by ID
	GetKeg(ctx context.Context, id int64) (*models.Keg, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id int64) (*models.User, error)

	// GetUserByUsername retrieves a user by username
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetDrink retrieves a drink by ID
	GetDrink(ctx context.Context, id int64) (*models.Drink, error)

	// GetSession retrieves a drinking session by ID
	GetSession(ctx context.Context, id int64) (*models.DrinkingSession, error)

	// LatestSession retrieves the session with the latest end time, or nil when there are none
	LatestSession(ctx context.Context) (*models.DrinkingSession, error)

	// ListSessionDrinks retrieves the drinks of a session in ID order
	ListSessionDrinks(ctx context.Context, sessionID int64) ([]*models.Drink, error)

	// ListKegDrinks retrieves the drinks poured from a keg in ID order
	ListKegDrinks(ctx context.Context, kegID int64) ([]*models.Drink, error)

	// ListDrinksFrom retrieves up to limit drinks with ID >= fromID in ID order
	ListDrinksFrom(ctx context.Context, input *ListDrinksFromInput) ([]*models.Drink, error)

	// LatestStats retrieves the newest stats row of a view, or nil when the view is empty
	LatestStats(ctx context.Context, viewKey string) (*models.Stats, error)

	// LatestStatsBefore retrieves the newest stats row of a view older than the given drink
	LatestStatsBefore(ctx context.Context, viewKey string, drinkID int64) (*models.Stats, error)

	// ListStatsForDrink retrieves every stats row written for a drink
	ListStatsForDrink(ctx context.Context, drinkID int64) ([]*models.Stats, error)

	// HasEvent reports whether an event of the kind already exists for the scope
	HasEvent(ctx context.Context, input *HasEventInput) (bool, error)

	// ListEvents retrieves events in ID order
	ListEvents(ctx context.Context, input *ListEventsInput) ([]*models.SystemEvent, error)
}

// Tx is a ledger transaction. Every multi-step mutation runs against one Tx.
type Tx interface {
	Reader

	// CreateKeg inserts a keg and sets its ID
	CreateKeg(ctx context.Context, keg *models.Keg) error

	// UpdateKeg persists the lifecycle fields of a keg (status, times, notes)
	UpdateKeg(ctx context.Context, keg *models.Keg) error

	// AddKegVolume applies relative deltas to the served and spilled volume of a keg
	AddKegVolume(ctx context.Context, input *AddKegVolumeInput) error

	// SetTapKeg attaches a keg to a tap, or detaches when kegID is nil
	SetTapKeg(ctx context.Context, tapID int64, kegID *int64) error

	// CreateDrink inserts a drink and sets its ID
	CreateDrink(ctx context.Context, drink *models.Drink) error

	// UpdateDrink persists the mutable fields of a drink
	UpdateDrink(ctx context.Context, drink *models.Drink) error

	// DeleteDrink removes a drink
	DeleteDrink(ctx context.Context, id int64) error

	// CreateSession inserts a session and sets its ID
	CreateSession(ctx context.Context, session *models.DrinkingSession) error

	// UpdateSession persists a session
	UpdateSession(ctx context.Context, session *models.DrinkingSession) error

	// DeleteSession removes a session
	DeleteSession(ctx context.Context, id int64) error

	// CreatePicture inserts a picture and sets its ID
	CreatePicture(ctx context.Context, picture *models.Picture) error

	// SetPictureUser changes the owner of a picture
	SetPictureUser(ctx context.Context, pictureID int64, userID int64) error

	// DeletePicture removes a picture
	DeletePicture(ctx context.Context, id int64) error

	// CreateEvent inserts an event and sets its ID
	CreateEvent(ctx context.Context, event *models.SystemEvent) error

	// ReassignDrinkEvents points the drink-poured event of a drink at a new user
	ReassignDrinkEvents(ctx context.Context, drinkID int64, userID int64) error

	// DetachDrinkEvents clears the drink reference of a drink's events
	DetachDrinkEvents(ctx context.Context, drinkID int64) error

	// CreateStats inserts a stats row and sets its ID
	CreateStats(ctx context.Context, stats *models.Stats) error

	// DeleteStatsFrom removes every stats row with drink ID >= drinkID
	DeleteStatsFrom(ctx context.Context, drinkID int64) error

	// DeleteStatsForDrink removes the stats rows of one drink
	DeleteStatsForDrink(ctx context.Context, drinkID int64) error
}

// Store defines the interface for ledger persistence
type Store interface {
	Reader

	// WithTransaction runs fn inside one transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(tx Tx) error) error

	// CreateUser registers a new user
	CreateUser(ctx context.Context, username string) (*models.User, error)

	// CreateTap registers a new tap
	CreateTap(ctx context.Context, input *CreateTapInput) (*models.Tap, error)

	// Close releases the underlying database
	Close() error
}
