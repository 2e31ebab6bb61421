package intake

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/KirkDiggler/kegledger/internal/common/errkind"
	"github.com/KirkDiggler/kegledger/internal/models"
	"github.com/KirkDiggler/kegledger/internal/services/recording"
	"github.com/KirkDiggler/kegledger/internal/services/stats"
)

// CommandHandler defines the interface for intake command handlers
type CommandHandler interface {
	// GetName returns the command name carried in the "command" metadata
	GetName() string

	// Handle decodes the payload and runs the command
	Handle(ctx context.Context, payload []byte) (interface{}, error)
}

// BaseCommand provides common functionality for all commands
type BaseCommand struct {
	Name string
}

// GetName returns the command name
func (c *BaseCommand) GetName() string {
	return c.Name
}

// typedCommand decodes a JSON payload into I and passes it to run
type typedCommand[I any, O any] struct {
	BaseCommand
	run func(ctx context.Context, input *I) (*O, error)
}

func newCommand[I any, O any](name string, run func(ctx context.Context, input *I) (*O, error)) CommandHandler {
	return &typedCommand[I, O]{BaseCommand: BaseCommand{Name: name}, run: run}
}

// Handle implements CommandHandler
func (c *typedCommand[I, O]) Handle(ctx context.Context, payload []byte) (interface{}, error) {
	input := new(I)
	if err := json.Unmarshal(payload, input); err != nil {
		return nil, fmt.Errorf("%w: malformed %s payload: %v", errkind.ErrValidation, c.Name, err)
	}
	return c.run(ctx, input)
}

// LatestStatsInput selects a stats view; omitted scopes are not constrained
type LatestStatsInput struct {
	UserID    *int64 `json:"user_id,omitempty"`
	KegID     *int64 `json:"keg_id,omitempty"`
	SessionID *int64 `json:"session_id,omitempty"`
}

// LatestStatsOutput is the newest snapshot of the selected view
type LatestStatsOutput struct {
	View     string           `json:"view"`
	Kind     models.ViewKind  `json:"kind"`
	Snapshot *models.Snapshot `json:"snapshot"`
}

// StatsReader serves cached stats snapshots
type StatsReader interface {
	Latest(ctx context.Context, view stats.View) (*models.Snapshot, error)
}

func latestStatsCommand(reader StatsReader) CommandHandler {
	return newCommand("latest_stats", func(ctx context.Context, input *LatestStatsInput) (*LatestStatsOutput, error) {
		view := stats.ScopedView(input.UserID, input.KegID, input.SessionID)
		snap, err := reader.Latest(ctx, view)
		if err != nil {
			return nil, err
		}
		return &LatestStatsOutput{View: view.Key(), Kind: view.Kind, Snapshot: snap}, nil
	})
}

// ledgerCommands returns a handler for every recording operation
func ledgerCommands(svc recording.Service) []CommandHandler {
	return []CommandHandler{
		newCommand("record_drink", svc.RecordDrink),
		newCommand("cancel_drink", svc.CancelDrink),
		newCommand("assign_drink", svc.AssignDrink),
		newCommand("set_drink_volume", svc.SetDrinkVolume),
		newCommand("start_keg", svc.StartKeg),
		newCommand("connect_keg", svc.ConnectKeg),
		newCommand("disconnect_keg", svc.DisconnectKeg),
		newCommand("end_keg", svc.EndKeg),
	}
}
