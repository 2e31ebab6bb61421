package recording

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go github.com/KirkDiggler/kegledger/internal/services/recording Service

import "context"

// Service defines the operations that mutate the drink ledger. Each call runs
// in exactly one ledger transaction.
type Service interface {
	// RecordDrink records a pour from a tap
	RecordDrink(ctx context.Context, input *RecordDrinkInput) (*RecordDrinkOutput, error)

	// CancelDrink removes a drink and returns its volume to the keg
	CancelDrink(ctx context.Context, input *CancelDrinkInput) (*CancelDrinkOutput, error)

	// AssignDrink changes the owner of a drink
	AssignDrink(ctx context.Context, input *AssignDrinkInput) (*AssignDrinkOutput, error)

	// SetDrinkVolume corrects the volume of a drink
	SetDrinkVolume(ctx context.Context, input *SetDrinkVolumeInput) (*SetDrinkVolumeOutput, error)

	// StartKeg puts a new keg on a tap, ending the keg it replaces
	StartKeg(ctx context.Context, input *StartKegInput) (*StartKegOutput, error)

	// ConnectKeg attaches an existing keg to a free tap
	ConnectKeg(ctx context.Context, input *ConnectKegInput) (*ConnectKegOutput, error)

	// DisconnectKeg detaches the keg of a tap without ending it
	DisconnectKeg(ctx context.Context, input *DisconnectKegInput) (*DisconnectKegOutput, error)

	// EndKeg finishes a detached keg
	EndKeg(ctx context.Context, input *EndKegInput) (*EndKegOutput, error)
}
