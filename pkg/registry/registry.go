// Package registry maps action types to their adapter factories.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/zapdesk/automata/pkg/models"
	"github.com/zapdesk/automata/pkg/protocol"
)

// Registry holds the action adapters available to the dispatcher. It is
// populated once at startup and read-only afterwards.
type Registry struct {
	logger          *slog.Logger
	actionFactories map[models.ActionType]protocol.ActionFactory
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger.With("module", "registry"),
		actionFactories: make(map[models.ActionType]protocol.ActionFactory),
	}
}

// RegisterAction adds an action factory, keyed by its type.
func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
	r.logger.Debug("Registered action", "action_type", factory.ID())
}

// CreateAction builds the adapter for an action type.
func (r *Registry) CreateAction(actionType models.ActionType) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", actionType)
	}

	return factory.Create()
}

// HealthCheck reports whether every known action type has an adapter.
func (r *Registry) HealthCheck() (string, bool) {
	for _, actionType := range models.KnownActionTypes {
		if _, ok := r.actionFactories[actionType]; !ok {
			return fmt.Sprintf("action type '%s' has no adapter", actionType), false
		}
	}

	return "all action adapters registered", true
}
