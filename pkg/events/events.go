// Package events defines the event types exchanged between the API surface
// and the execution workers.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every flow execution event.
const Topic = "fluxo.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	FlowExecutionRequestedEvent EventType = "flow.execution.requested"
	FlowExecutionCompletedEvent EventType = "flow.execution.completed"
	FlowExecutionFailedEvent    EventType = "flow.execution.failed"
)

type BaseEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	FlowID         string         `json:"flow_id"`
	OrganizationID string         `json:"organization_id"`
	WorkerID       string         `json:"worker_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID, organizationID string) BaseEvent {
	return BaseEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		FlowID:         flowID,
		OrganizationID: organizationID,
	}
}

// FlowExecutionRequested asks a worker to run a flow. The execution record
// does not exist yet; the worker creates it when it picks the event up.
type FlowExecutionRequested struct {
	BaseEvent

	Payload   map[string]any `json:"payload,omitempty"`
	Simulated bool           `json:"simulated"`
}

func (e FlowExecutionRequested) GetType() EventType {
	return FlowExecutionRequestedEvent
}

type FlowExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Status      string        `json:"status"`
	Duration    time.Duration `json:"duration"`
}

func (e FlowExecutionCompleted) GetType() EventType {
	return FlowExecutionCompletedEvent
}

type FlowExecutionFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Error       string        `json:"error"`
	Duration    time.Duration `json:"duration"`
}

func (e FlowExecutionFailed) GetType() EventType {
	return FlowExecutionFailedEvent
}
