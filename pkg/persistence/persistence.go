// Package persistence provides the data storage abstraction for flow
// definitions and execution records.
package persistence

import (
	"context"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
)

type Persistence interface {
	FlowRepository() FlowRepository
	ExecutionRepository() ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores flow definitions and their graphs. Every read is
// scoped by organization id; a flow owned by another organization is
// indistinguishable from ErrFlowNotFound.
type FlowRepository interface {
	// ListFlows returns the organization's definitions without their graphs,
	// most recently updated first.
	ListFlows(ctx context.Context, organizationID string) ([]*models.FlowDefinition, error)

	// FlowWithGraph returns a definition with its complete node and edge set.
	FlowWithGraph(ctx context.Context, id, organizationID string) (*models.FlowDefinition, error)

	// SaveFlow upserts the definition and replaces all nodes and edges with
	// the given snapshot, atomically. There is no incremental diffing.
	SaveFlow(ctx context.Context, flow *models.FlowDefinition) error

	// ListActiveFlows returns every active flow with its graph, across all
	// organizations. Only the scheduler uses this; tenant-facing reads stay
	// organization scoped.
	ListActiveFlows(ctx context.Context) ([]*models.FlowDefinition, error)
}

// ExecutionRepository stores flow execution records and their append-only
// logs.
type ExecutionRepository interface {
	CreateExecution(ctx context.Context, execution *models.FlowExecution) error

	// UpdateExecutionStatus applies the single terminal transition and the
	// final context snapshot. Terminal executions are never revived.
	UpdateExecutionStatus(ctx context.Context, id string, status models.ExecutionStatus, completedAt *time.Time, execContext map[string]any) error

	// AppendLog attaches one entry to an execution's log. Appends must never
	// drop entries and must preserve call order.
	AppendLog(ctx context.Context, executionID string, entry models.ExecutionLogEntry) error

	ExecutionByID(ctx context.Context, id, organizationID string) (*models.FlowExecution, error)

	// ListExecutions returns the most recent executions of a flow, newest
	// first, capped at limit.
	ListExecutions(ctx context.Context, flowID, organizationID string, limit int) ([]*models.FlowExecution, error)
}
