package models

// NodeType represents the behavioral kind of a flow node.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeAction    NodeType = "action"
	NodeTypeCondition NodeType = "condition"
	NodeTypeAI        NodeType = "ai"
	NodeTypeWebhook   NodeType = "webhook"
)

// Position is a canvas layout hint. It has no behavioral meaning.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FlowNode represents one step in a flow graph. Config is an open structured
// blob interpreted per node type; DecodeActionConfig and friends provide
// typed views over it.
type FlowNode struct {
	ID       string         `json:"id"       validate:"required"`
	FlowID   string         `json:"flow_id"`
	Type     NodeType       `json:"type"     validate:"required"`
	Config   map[string]any `json:"config"`
	Position Position       `json:"position"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FlowEdge is a directed connection between two nodes of the same flow.
// ConditionLabel selects a branch out of a condition node and is matched
// exactly; canonical values are "true" and "false" but any opaque string is
// legal. Unconditional edges carry an empty label.
type FlowEdge struct {
	ID             string `json:"id"`
	FlowID         string `json:"flow_id"`
	SourceNodeID   string `json:"source_node_id" validate:"required"`
	TargetNodeID   string `json:"target_node_id" validate:"required"`
	ConditionLabel string `json:"condition_label,omitempty"`
}

// Unconditional reports whether the edge is followed regardless of branch.
func (e *FlowEdge) Unconditional() bool {
	return e.ConditionLabel == ""
}
