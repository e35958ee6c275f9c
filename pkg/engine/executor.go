// Package engine implements the flow interpreter: it loads a flow graph,
// creates the execution record, and walks the graph depth-first from the
// trigger node, dispatching each node to its handler.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/otelhelper"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
	"github.com/fluxohq/fluxo/pkg/template"
)

// DefaultMaxNodeVisits bounds how many node executions a single run may
// perform. Cyclic graphs hit this guard instead of recursing forever.
const DefaultMaxNodeVisits = 1000

var (
	ErrNoTriggerNode  = fmt.Errorf("flow has no trigger node")
	ErrTraversalLimit = fmt.Errorf("traversal limit exceeded")
)

// Executor runs flow executions against a persistence layer and an action
// registry. One Executor is shared across executions; all per-run state
// lives in the traversal.
type Executor struct {
	persistence   persistence.Persistence
	registry      *registry.Registry
	ai            protocol.AI
	tracer        trace.Tracer
	logger        *slog.Logger
	maxNodeVisits int
}

type ExecutorOption func(*Executor)

func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = tracer }
}

func WithMaxNodeVisits(limit int) ExecutorOption {
	return func(e *Executor) { e.maxNodeVisits = limit }
}

func NewExecutor(
	persistence persistence.Persistence,
	reg *registry.Registry,
	ai protocol.AI,
	logger *slog.Logger,
	opts ...ExecutorOption,
) *Executor {
	executor := &Executor{
		persistence:   persistence,
		registry:      reg,
		ai:            ai,
		tracer:        noop.NewTracerProvider().Tracer("fluxo-engine"),
		logger:        logger.With("module", "engine"),
		maxNodeVisits: DefaultMaxNodeVisits,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// traversal carries the per-run state threaded through the recursion.
type traversal struct {
	flow     *models.FlowDefinition
	execCtx  models.ExecutionContext
	recorder *executionRecorder
	visits   int
}

// Execute runs one flow execution to its terminal state. The returned
// execution carries the final status and accumulated context. An error is
// returned both for pre-flight failures (flow not found, record creation)
// and for traversal failures, but in the latter case the execution record
// has already been marked failed.
func (e *Executor) Execute(
	ctx context.Context,
	flowID, organizationID string,
	payload map[string]any,
	simulated bool,
) (*models.FlowExecution, error) {
	flow, err := e.persistence.FlowRepository().FlowWithGraph(ctx, flowID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("load flow %s: %w", flowID, err)
	}

	data := make(map[string]any, len(payload))
	for key, value := range payload {
		data[key] = value
	}

	status := models.ExecutionStatusRunning
	if simulated {
		status = models.ExecutionStatusSimulated
	}

	execution := &models.FlowExecution{
		ID:             uuid.New().String(),
		FlowID:         flow.ID,
		OrganizationID: organizationID,
		Status:         status,
		StartedAt:      time.Now().UTC(),
		Context:        data,
	}

	executions := e.persistence.ExecutionRepository()
	if err := executions.CreateExecution(ctx, execution); err != nil {
		return nil, fmt.Errorf("create execution for flow %s: %w", flowID, err)
	}

	recorder := newExecutionRecorder(execution.ID, executions, e.logger)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute_flow",
		attribute.String(otelhelper.FlowIDKey, flow.ID),
		attribute.String(otelhelper.FlowNameKey, flow.Name),
		attribute.String(otelhelper.OrganizationIDKey, organizationID),
		attribute.String(otelhelper.ExecutionIDKey, execution.ID),
		attribute.Bool(otelhelper.SimulatedKey, simulated),
	)
	defer span.End()

	run := &traversal{
		flow: flow,
		execCtx: models.ExecutionContext{
			ExecutionID:    execution.ID,
			FlowID:         flow.ID,
			OrganizationID: organizationID,
			Simulated:      simulated,
			Data:           data,
			Recorder:       recorder,
		},
		recorder: recorder,
	}

	recorder.Info(ctx, fmt.Sprintf("Execution started for flow %q (simulated=%t)", flow.Name, simulated))

	runErr := e.traverse(ctx, run)

	terminal := models.ExecutionStatusCompleted
	if simulated {
		terminal = models.ExecutionStatusSimulated
	}

	if runErr != nil {
		terminal = models.ExecutionStatusFailed

		recorder.Error(ctx, fmt.Sprintf("Execution failed: %v", runErr))
		otelhelper.SetError(span, runErr)
	}

	completedAt := time.Now().UTC()
	if err := executions.UpdateExecutionStatus(ctx, execution.ID, terminal, &completedAt, run.execCtx.Data); err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist terminal execution status",
			"execution_id", execution.ID, "status", terminal, "error", err)
	}

	execution.Status = terminal
	execution.CompletedAt = &completedAt
	execution.Context = run.execCtx.Data

	return execution, runErr
}

func (e *Executor) traverse(ctx context.Context, run *traversal) error {
	trigger := run.flow.TriggerNode()
	if trigger == nil {
		run.recorder.Error(ctx, "Flow has no trigger node")

		return ErrNoTriggerNode
	}

	return e.executeNode(ctx, run, trigger, map[string]bool{})
}

// executeNode dispatches one node and recurses into its outgoing edges in
// declaration order. The path set detects cycles on the current branch
// only, so diamond graphs still execute the convergent node once per
// incoming path.
func (e *Executor) executeNode(ctx context.Context, run *traversal, node *models.FlowNode, path map[string]bool) error {
	if path[node.ID] {
		run.recorder.Error(ctx, fmt.Sprintf("Cycle detected at node %s, aborting traversal", node.ID))

		return ErrTraversalLimit
	}

	run.visits++
	if run.visits > e.maxNodeVisits {
		run.recorder.Error(ctx, fmt.Sprintf("Node visit limit exceeded (%d), aborting traversal", e.maxNodeVisits))

		return ErrTraversalLimit
	}

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute_node",
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	)
	defer span.End()

	path[node.ID] = true
	defer delete(path, node.ID)

	switch node.Type {
	case models.NodeTypeTrigger:
		return e.advance(ctx, run, unconditionalEdges(run.flow, node), path)
	case models.NodeTypeAction:
		if err := e.performAction(ctx, run, node); err != nil {
			otelhelper.SetError(span, err)

			return err
		}

		return e.advance(ctx, run, unconditionalEdges(run.flow, node), path)
	case models.NodeTypeCondition:
		return e.advance(ctx, run, e.conditionEdges(ctx, run, node), path)
	case models.NodeTypeAI:
		if err := e.performAI(ctx, run, node); err != nil {
			otelhelper.SetError(span, err)

			return err
		}

		return e.advance(ctx, run, unconditionalEdges(run.flow, node), path)
	default:
		run.recorder.Warn(ctx, fmt.Sprintf("Unsupported node type %q at node %s, stopping branch", node.Type, node.ID))

		return nil
	}
}

// advance runs every target sequentially, one subtree fully to completion
// before the next begins. Later siblings observe context mutations made by
// earlier ones.
func (e *Executor) advance(ctx context.Context, run *traversal, edges []*models.FlowEdge, path map[string]bool) error {
	for _, edge := range edges {
		target := run.flow.NodeByID(edge.TargetNodeID)
		if target == nil {
			run.recorder.Warn(ctx, fmt.Sprintf("Edge %s points to unknown node %s, skipping", edge.ID, edge.TargetNodeID))

			continue
		}

		if err := e.executeNode(ctx, run, target, path); err != nil {
			return err
		}
	}

	return nil
}

func unconditionalEdges(flow *models.FlowDefinition, node *models.FlowNode) []*models.FlowEdge {
	edges := make([]*models.FlowEdge, 0)

	for _, edge := range flow.EdgesFrom(node.ID) {
		if edge.Unconditional() {
			edges = append(edges, edge)
		}
	}

	return edges
}

// conditionEdges evaluates the node's condition and keeps only the edges
// whose label exactly matches the computed branch. No matching edge is a
// silent dead end.
func (e *Executor) conditionEdges(ctx context.Context, run *traversal, node *models.FlowNode) []*models.FlowEdge {
	config := node.DecodeConditionConfig()

	branch := "false"
	if models.EvaluateCondition(config, run.execCtx.Data) {
		branch = "true"
	}

	run.recorder.Info(ctx, fmt.Sprintf("Condition %s evaluated to %s", node.ID, branch))

	edges := make([]*models.FlowEdge, 0)

	for _, edge := range run.flow.EdgesFrom(node.ID) {
		if edge.ConditionLabel == branch {
			edges = append(edges, edge)
		}
	}

	return edges
}

// performAction resolves and executes the node's action. Simulated runs
// skip before any action code is reached so no action implementation can
// leak a side effect into a dry run. Unknown action identifiers are a
// logged no-op.
func (e *Executor) performAction(ctx context.Context, run *traversal, node *models.FlowNode) error {
	config, err := node.DecodeActionConfig()
	if err != nil {
		run.recorder.Warn(ctx, fmt.Sprintf("Action node %s has no action configured, skipping", node.ID))

		return nil
	}

	if run.execCtx.Simulated {
		run.recorder.Info(ctx, fmt.Sprintf("[SIMULATED] Skipped action %s", config.Action))

		return nil
	}

	if !e.registry.KnownAction(config.Action) {
		run.recorder.Warn(ctx, fmt.Sprintf("Unknown action %q at node %s, skipping", config.Action, node.ID))

		return nil
	}

	action, err := e.registry.CreateAction(config.Action, config.Params)
	if err != nil {
		return fmt.Errorf("configure action %s at node %s: %w", config.Action, node.ID, err)
	}

	output, err := action.Execute(ctx, run.execCtx, e.logger)
	if err != nil {
		return fmt.Errorf("execute action %s at node %s: %w", config.Action, node.ID, err)
	}

	for key, value := range output {
		run.execCtx.Data[key] = value
	}

	return nil
}

// performAI invokes the AI collaborator and stores its result under the
// aiOutput context key. Simulated runs get a static echo instead.
func (e *Executor) performAI(ctx context.Context, run *traversal, node *models.FlowNode) error {
	config := node.DecodeAIConfig()

	if run.execCtx.Simulated {
		rendered := template.Substitute(config.PromptTemplate, run.execCtx.Data)
		run.execCtx.Data["aiOutput"] = "[SIMULATED] Echo: " + rendered

		run.recorder.Info(ctx, fmt.Sprintf("[SIMULATED] Skipped AI completion at node %s", node.ID))

		return nil
	}

	if e.ai == nil {
		run.recorder.Warn(ctx, fmt.Sprintf("No AI collaborator configured, skipping node %s", node.ID))

		return nil
	}

	output, err := e.ai.Complete(ctx, config.PromptTemplate, config.Model, run.execCtx.Data)
	if err != nil {
		return fmt.Errorf("ai completion at node %s: %w", node.ID, err)
	}

	run.execCtx.Data["aiOutput"] = output

	run.recorder.Info(ctx, fmt.Sprintf("AI completion stored for node %s", node.ID))

	return nil
}
