// Package protocol defines the contracts between the flow engine and its
// pluggable actions and external collaborators.
package protocol

import (
	"context"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
)

// Action is one side-effecting operation invoked by an action node. Execute
// may enrich the execution context through its return value; the engine
// merges returned keys into the shared context map.
type Action interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// ActionFactory creates action instances from a node's decoded parameters.
type ActionFactory interface {
	// ID returns the action identifier as it appears in node configs,
	// e.g. "UPDATE_STOCK".
	ID() string

	Create(params map[string]any) (Action, error)

	// Schema returns the JSON schema for the action's params, used to
	// validate flow definitions at save time.
	Schema() map[string]any
}
