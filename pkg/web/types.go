// Package web provides HTTP request and response types for the flow API.
package web

import "github.com/fluxohq/fluxo/pkg/models"

// OrganizationHeader carries the tenant for every request.
const OrganizationHeader = "X-Organization-ID"

// NodeRequest is one node in a flow snapshot.
type NodeRequest struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"       validate:"required,oneof=trigger action condition ai webhook"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EdgeRequest is one edge in a flow snapshot.
type EdgeRequest struct {
	ID             string `json:"id"`
	SourceNodeID   string `json:"source_node_id" validate:"required"`
	TargetNodeID   string `json:"target_node_id" validate:"required"`
	ConditionLabel string `json:"condition_label"`
}

// SaveFlowRequest is the request body for creating or replacing a flow.
// The node and edge lists are a full snapshot; the stored graph is
// replaced whole on every save.
type SaveFlowRequest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      string         `json:"status"      validate:"omitempty,oneof=draft active archived"`
	Nodes       []NodeRequest  `json:"nodes"       validate:"dive"`
	Edges       []EdgeRequest  `json:"edges"       validate:"dive"`
}

// ExecuteFlowRequest is the request body for starting an execution.
type ExecuteFlowRequest struct {
	Payload     map[string]any `json:"payload"`
	IsSimulated bool           `json:"isSimulated"`
}

// SaveFlowResponse returns the id of the saved flow.
type SaveFlowResponse struct {
	FlowID string `json:"flowId"`
}

// ExecuteFlowResponse acknowledges that an execution was started. It says
// nothing about the outcome.
type ExecuteFlowResponse struct {
	Status string `json:"status"`
}

func toModelNodes(flowID string, nodes []NodeRequest) []*models.FlowNode {
	out := make([]*models.FlowNode, 0, len(nodes))

	for _, node := range nodes {
		out = append(out, &models.FlowNode{
			ID:     node.ID,
			FlowID: flowID,
			Type:   models.NodeType(node.Type),
			Config: node.Config,
			Position: models.Position{
				X: node.PositionX,
				Y: node.PositionY,
			},
			Metadata: node.Metadata,
		})
	}

	return out
}

func toModelEdges(flowID string, edges []EdgeRequest) []*models.FlowEdge {
	out := make([]*models.FlowEdge, 0, len(edges))

	for _, edge := range edges {
		out = append(out, &models.FlowEdge{
			ID:             edge.ID,
			FlowID:         flowID,
			SourceNodeID:   edge.SourceNodeID,
			TargetNodeID:   edge.TargetNodeID,
			ConditionLabel: edge.ConditionLabel,
		})
	}

	return out
}
