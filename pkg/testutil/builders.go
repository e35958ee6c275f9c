package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
)

// MemoryRecorder collects execution log entries in memory.
type MemoryRecorder struct {
	mu      sync.Mutex
	Entries []models.ExecutionLogEntry
}

func (r *MemoryRecorder) append(message string, logType models.LogType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Entries = append(r.Entries, models.ExecutionLogEntry{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Type:      logType,
	})
}

func (r *MemoryRecorder) Info(_ context.Context, message string)  { r.append(message, models.LogTypeInfo) }
func (r *MemoryRecorder) Warn(_ context.Context, message string)  { r.append(message, models.LogTypeWarning) }
func (r *MemoryRecorder) Error(_ context.Context, message string) { r.append(message, models.LogTypeError) }

// Messages returns the recorded messages in order.
func (r *MemoryRecorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := make([]string, 0, len(r.Entries))
	for _, entry := range r.Entries {
		messages = append(messages, entry.Message)
	}

	return messages
}

// ExecutionContext builds a non-simulated execution context backed by a
// MemoryRecorder.
func ExecutionContext(organizationID string, data map[string]any) (models.ExecutionContext, *MemoryRecorder) {
	if data == nil {
		data = make(map[string]any)
	}

	recorder := &MemoryRecorder{}

	return models.ExecutionContext{
		ExecutionID:    "exec-test",
		FlowID:         "flow-test",
		OrganizationID: organizationID,
		Data:           data,
		Recorder:       recorder,
	}, recorder
}

// FlowBuilder assembles flow definitions for tests.
type FlowBuilder struct {
	flow *models.FlowDefinition
}

func NewFlow(id, organizationID string) *FlowBuilder {
	now := time.Now().UTC()

	return &FlowBuilder{flow: &models.FlowDefinition{
		ID:             id,
		OrganizationID: organizationID,
		Name:           "flow " + id,
		Version:        "1",
		Status:         models.FlowStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}}
}

func (b *FlowBuilder) Name(name string) *FlowBuilder {
	b.flow.Name = name

	return b
}

func (b *FlowBuilder) Status(status models.FlowStatus) *FlowBuilder {
	b.flow.Status = status

	return b
}

func (b *FlowBuilder) Node(id string, nodeType models.NodeType, config map[string]any) *FlowBuilder {
	b.flow.Nodes = append(b.flow.Nodes, &models.FlowNode{
		ID:     id,
		FlowID: b.flow.ID,
		Type:   nodeType,
		Config: config,
	})

	return b
}

func (b *FlowBuilder) Trigger(id string) *FlowBuilder {
	return b.Node(id, models.NodeTypeTrigger, map[string]any{"event": "manual"})
}

func (b *FlowBuilder) Action(id, action string, params map[string]any) *FlowBuilder {
	return b.Node(id, models.NodeTypeAction, map[string]any{"action": action, "params": params})
}

func (b *FlowBuilder) Condition(id, field, operator string, value any) *FlowBuilder {
	return b.Node(id, models.NodeTypeCondition, map[string]any{
		"field":    field,
		"operator": operator,
		"value":    value,
	})
}

func (b *FlowBuilder) Edge(source, target string) *FlowBuilder {
	return b.LabeledEdge(source, target, "")
}

func (b *FlowBuilder) LabeledEdge(source, target, label string) *FlowBuilder {
	b.flow.Edges = append(b.flow.Edges, &models.FlowEdge{
		ID:             source + "->" + target,
		FlowID:         b.flow.ID,
		SourceNodeID:   source,
		TargetNodeID:   target,
		ConditionLabel: label,
	})

	return b
}

func (b *FlowBuilder) Build() *models.FlowDefinition {
	return b.flow
}
