package models

import (
	"context"
	"time"
)

// ExecutionStatus represents the lifecycle state of one flow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusSimulated ExecutionStatus = "simulated"
)

// Terminal reports whether the status can no longer change.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusSimulated
}

// LogType classifies an execution log entry.
type LogType string

const (
	LogTypeInfo    LogType = "info"
	LogTypeWarning LogType = "warning"
	LogTypeError   LogType = "error"
)

// ExecutionLogEntry is one timestamped line of an execution's audit trail.
type ExecutionLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// FlowExecution represents one run of a flow. Logs are append-only and
// ordered oldest first; Context is the runtime key/value state seeded from
// the caller's payload and enriched by node execution.
type FlowExecution struct {
	ID             string              `json:"id"`
	FlowID         string              `json:"flow_id"`
	OrganizationID string              `json:"organization_id"`
	Status         ExecutionStatus     `json:"status"`
	StartedAt      time.Time           `json:"started_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	Logs           []ExecutionLogEntry `json:"logs"`
	Context        map[string]any      `json:"context"`
}

// LogRecorder appends typed entries to a running execution's log. It must be
// safe to call repeatedly and interleaved with graph traversal; a failed
// append must not abort the run.
type LogRecorder interface {
	Info(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// ExecutionContext is the state threaded through one traversal. Data is
// shared and mutated in place; sibling branches of a fan-out observe the
// mutations of branches that ran before them.
type ExecutionContext struct {
	ExecutionID    string
	FlowID         string
	OrganizationID string
	Simulated      bool
	Data           map[string]any
	Recorder       LogRecorder
}
