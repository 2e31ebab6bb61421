// Package dispatch delivers committed system events to the collaborators
// registered at process start. Delivery is fire-and-forget: a failing
// collaborator is logged and counted but never fails the ledger operation
// that produced the events.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/KirkDiggler/kegledger/internal/logging"
	"github.com/KirkDiggler/kegledger/internal/metrics"
	"github.com/KirkDiggler/kegledger/internal/models"
)

// Registry holds the collaborators events are dispatched to
type Registry struct {
	mu            sync.RWMutex
	collaborators []Collaborator
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a collaborator
func (r *Registry) Register(c Collaborator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collaborators = append(r.collaborators, c)
}

// Len returns the number of registered collaborators
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.collaborators)
}

// Dispatch hands events to every collaborator in registration order
func (r *Registry) Dispatch(ctx context.Context, events []*models.SystemEvent) {
	if len(events) == 0 {
		return
	}

	r.mu.RLock()
	collaborators := append([]Collaborator(nil), r.collaborators...)
	r.mu.RUnlock()

	for _, c := range collaborators {
		err := deliver(ctx, c, events)
		metrics.RecordDispatch(c.Name(), len(events), err)
		if err != nil {
			logging.Ctx(ctx).Error().
				Err(err).
				Str("collaborator", c.Name()).
				Int("events", len(events)).
				Msg("collaborator failed to handle events")
		}
	}
}

func deliver(ctx context.Context, c Collaborator, events []*models.SystemEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("collaborator panicked: %v", p)
		}
	}()
	return c.OnEvents(ctx, events)
}
