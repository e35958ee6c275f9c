package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
)

// Dispatcher consumes execution request events and runs them through the
// Executor. It publishes a completion or failure event per run so other
// consumers can observe outcomes, but nothing waits on those events.
type Dispatcher struct {
	workerID string
	executor *Executor
	bus      eventbus.EventBus
	logger   *slog.Logger
}

func NewDispatcher(workerID string, executor *Executor, bus eventbus.EventBus, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		workerID: workerID,
		executor: executor,
		bus:      bus,
		logger:   logger.With("module", "dispatcher", "worker_id", workerID),
	}
}

// Start registers the handler and begins consuming. It returns once the
// subscription is established; consumption continues until ctx is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.bus.Handle(events.FlowExecutionRequestedEvent, d.handleExecutionRequested); err != nil {
		return fmt.Errorf("register execution handler: %w", err)
	}

	return d.bus.Subscribe(ctx)
}

func (d *Dispatcher) handleExecutionRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.FlowExecutionRequested)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	d.logger.InfoContext(ctx, "Flow execution requested",
		"flow_id", request.FlowID,
		"organization_id", request.OrganizationID,
		"simulated", request.Simulated,
	)

	started := time.Now()

	execution, err := d.executor.Execute(ctx, request.FlowID, request.OrganizationID, request.Payload, request.Simulated)
	if err != nil {
		d.logger.ErrorContext(ctx, "Flow execution failed",
			"flow_id", request.FlowID,
			"error", err,
		)

		failed := events.FlowExecutionFailed{
			BaseEvent: events.NewBaseEvent(events.FlowExecutionFailedEvent, request.FlowID, request.OrganizationID),
			Error:     err.Error(),
			Duration:  time.Since(started),
		}
		failed.WorkerID = d.workerID

		if execution != nil {
			failed.ExecutionID = execution.ID
		}

		if publishErr := d.bus.Publish(ctx, request.FlowID, failed); publishErr != nil {
			d.logger.ErrorContext(ctx, "Failed to publish failure event", "error", publishErr)
		}

		// The failure is recorded on the execution itself; ack the message
		// so the request is not redelivered.
		return nil
	}

	completed := events.FlowExecutionCompleted{
		BaseEvent:   events.NewBaseEvent(events.FlowExecutionCompletedEvent, request.FlowID, request.OrganizationID),
		ExecutionID: execution.ID,
		Status:      string(execution.Status),
		Duration:    time.Since(started),
	}
	completed.WorkerID = d.workerID

	if err := d.bus.Publish(ctx, request.FlowID, completed); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish completion event", "error", err)
	}

	return nil
}
