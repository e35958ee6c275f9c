package services

import (
	"context"
	"fmt"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// DefaultExecutionHistoryLimit caps how many executions the history
// endpoint returns.
const DefaultExecutionHistoryLimit = 20

type Execution struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
}

// NewExecution creates a new execution service.
func NewExecution(persistence persistence.Persistence, eventBus eventbus.EventBus) *Execution {
	return &Execution{
		persistence: persistence,
		eventBus:    eventBus,
	}
}

// ExecuteFlow publishes an execution request and returns immediately. The
// caller never gets a synchronous success or failure signal; outcomes are
// observable only through the execution history. Even a flow guaranteed to
// fail, or one that does not exist, is accepted here.
func (e *Execution) ExecuteFlow(ctx context.Context, flowID, organizationID string, payload map[string]any, simulated bool) error {
	if organizationID == "" {
		return ErrOrganizationRequired
	}

	event := events.FlowExecutionRequested{
		BaseEvent: events.NewBaseEvent(events.FlowExecutionRequestedEvent, flowID, organizationID),
		Payload:   payload,
		Simulated: simulated,
	}

	if err := e.eventBus.Publish(ctx, flowID, event); err != nil {
		return fmt.Errorf("publish execution request for flow %s: %w", flowID, err)
	}

	return nil
}

// ListExecutions returns the flow's most recent executions, newest first.
func (e *Execution) ListExecutions(ctx context.Context, flowID, organizationID string) ([]*models.FlowExecution, error) {
	if organizationID == "" {
		return nil, ErrOrganizationRequired
	}

	executions, err := e.persistence.ExecutionRepository().ListExecutions(ctx, flowID, organizationID, DefaultExecutionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list executions for flow %s: %w", flowID, err)
	}

	return executions, nil
}

// GetExecution returns one execution with its full log.
func (e *Execution) GetExecution(ctx context.Context, executionID, organizationID string) (*models.FlowExecution, error) {
	if organizationID == "" {
		return nil, ErrOrganizationRequired
	}

	execution, err := e.persistence.ExecutionRepository().ExecutionByID(ctx, executionID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("get execution %s: %w", executionID, err)
	}

	return execution, nil
}
