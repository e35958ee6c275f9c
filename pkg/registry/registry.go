// Package registry maps action identifiers to their factories.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// KnownAction reports whether the identifier has a registered factory.
// Unknown identifiers are not an error anywhere in the engine; flows saved
// by a newer builder may reference actions this engine does not carry yet.
func (r *Registry) KnownAction(actionID string) bool {
	_, ok := r.actionFactories[actionID]

	return ok
}

func (r *Registry) CreateAction(actionID string, params map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionID]
	if !ok {
		return nil, fmt.Errorf("action '%s' not registered", actionID)
	}

	return factory.Create(params)
}

// ActionSchema returns the params schema of a registered action, or nil for
// unknown identifiers.
func (r *Registry) ActionSchema(actionID string) map[string]any {
	factory, ok := r.actionFactories[actionID]
	if !ok {
		return nil
	}

	return factory.Schema()
}
