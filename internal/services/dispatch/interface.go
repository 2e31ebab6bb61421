package dispatch

//go:generate mockgen -package=mocks -destination=mocks/mock_collaborator.go github.com/KirkDiggler/kegledger/internal/services/dispatch Collaborator

import (
	"context"

	"github.com/KirkDiggler/kegledger/internal/models"
)

// Collaborator receives the events of every committed backend operation
type Collaborator interface {
	// Name identifies the collaborator in logs and metrics
	Name() string

	// OnEvents handles the events of one operation in creation order
	OnEvents(ctx context.Context, events []*models.SystemEvent) error
}
