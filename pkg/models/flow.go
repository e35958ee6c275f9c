// Package models defines the core domain models for graph-based flow automation.
package models

import "time"

// FlowStatus represents the lifecycle state of a flow definition.
type FlowStatus string

const (
	FlowStatusDraft    FlowStatus = "draft"    // Editable, not yet enabled
	FlowStatusActive   FlowStatus = "active"   // Executable
	FlowStatusArchived FlowStatus = "archived" // Retired, never physically deleted
)

// FlowDefinition represents one automation graph owned by an organization.
// Nodes and Edges are the full graph snapshot; saving a definition always
// replaces both wholesale.
type FlowDefinition struct {
	ID             string      `json:"id"`
	OrganizationID string      `json:"organization_id" validate:"required"`
	Name           string      `json:"name"            validate:"required,min=3"`
	Description    string      `json:"description"`
	Version        string      `json:"version"`
	Status         FlowStatus  `json:"status"`
	CreatedBy      string      `json:"created_by"`
	Nodes          []*FlowNode `json:"nodes"`
	Edges          []*FlowEdge `json:"edges"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TriggerNode returns the flow's entry point, or nil when the graph has none.
// A flow without a trigger node is not executable.
func (f *FlowDefinition) TriggerNode() *FlowNode {
	for _, node := range f.Nodes {
		if node.Type == NodeTypeTrigger {
			return node
		}
	}

	return nil
}

// EdgesFrom returns the outgoing edges of a node in declaration order.
func (f *FlowDefinition) EdgesFrom(nodeID string) []*FlowEdge {
	edges := make([]*FlowEdge, 0)

	for _, edge := range f.Edges {
		if edge.SourceNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// NodeByID returns the node with the given id, or nil.
func (f *FlowDefinition) NodeByID(id string) *FlowNode {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
