package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/registry"
)

// ErrFlowNotFound is returned when a flow is not found.
var ErrFlowNotFound = persistence.ErrFlowNotFound

type Flow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

// NewFlow creates a new flow service.
func NewFlow(persistence persistence.Persistence, registry *registry.Registry) *Flow {
	return &Flow{
		persistence: persistence,
		registry:    registry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (f *Flow) HealthCheck(ctx context.Context) (string, bool) {
	if f.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := f.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListFlows returns the organization's flows, most recently updated first.
func (f *Flow) ListFlows(ctx context.Context, organizationID string) ([]*models.FlowDefinition, error) {
	if organizationID == "" {
		return nil, ErrOrganizationRequired
	}

	flows, err := f.persistence.FlowRepository().ListFlows(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	return flows, nil
}

// GetFlow returns one flow with its full node and edge set.
func (f *Flow) GetFlow(ctx context.Context, flowID, organizationID string) (*models.FlowDefinition, error) {
	if organizationID == "" {
		return nil, ErrOrganizationRequired
	}

	flow, err := f.persistence.FlowRepository().FlowWithGraph(ctx, flowID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("get flow %s: %w", flowID, err)
	}

	return flow, nil
}

// SaveFlowRequest carries a full graph snapshot. An absent ID means create;
// a present ID means replace that flow's definition, nodes, and edges.
type SaveFlowRequest struct {
	ID          string
	Name        string
	Description string
	Status      models.FlowStatus
	Nodes       []*models.FlowNode
	Edges       []*models.FlowEdge
}

// SaveFlow validates and persists a flow snapshot, returning the flow id.
// The stored graph is always replaced whole, never diffed.
func (f *Flow) SaveFlow(ctx context.Context, organizationID string, req SaveFlowRequest) (string, error) {
	if organizationID == "" {
		return "", ErrOrganizationRequired
	}

	if req.Name == "" {
		return "", ErrFlowNameRequired
	}

	if err := f.validateGraph(req); err != nil {
		return "", err
	}

	status := req.Status
	if status == "" {
		status = models.FlowStatusActive
	}

	// Timestamps stay zero here; each store backfills CreatedAt on first
	// insert and preserves it on replace.
	flow := &models.FlowDefinition{
		ID:             req.ID,
		OrganizationID: organizationID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         status,
		Nodes:          req.Nodes,
		Edges:          req.Edges,
	}

	for _, node := range flow.Nodes {
		if node.ID == "" {
			node.ID = uuid.New().String()
		}
	}

	for _, edge := range flow.Edges {
		if edge.ID == "" {
			edge.ID = uuid.New().String()
		}
	}

	if err := f.persistence.FlowRepository().SaveFlow(ctx, flow); err != nil {
		return "", fmt.Errorf("save flow: %w", err)
	}

	return flow.ID, nil
}

// validateGraph rejects edges pointing outside the submitted node set and
// action params that contradict a known action's schema. Unknown action
// identifiers pass through so newer flow definitions stay loadable on
// older engines.
func (f *Flow) validateGraph(req SaveFlowRequest) error {
	nodeIDs := make(map[string]bool, len(req.Nodes))
	for _, node := range req.Nodes {
		if node.ID != "" {
			nodeIDs[node.ID] = true
		}
	}

	for _, edge := range req.Edges {
		if !nodeIDs[edge.SourceNodeID] || !nodeIDs[edge.TargetNodeID] {
			return NewValidationError("SaveFlow",
				fmt.Sprintf("edge %s references a missing node", edge.ID), ErrUnknownEdgeEndpoint)
		}
	}

	if f.registry == nil {
		return nil
	}

	for _, node := range req.Nodes {
		if node.Type != models.NodeTypeAction {
			continue
		}

		config, err := node.DecodeActionConfig()
		if err != nil {
			continue
		}

		if err := f.registry.ValidateParams(config.Action, config.Params); err != nil {
			return NewValidationError("SaveFlow",
				fmt.Sprintf("node %s: %v", node.ID, err), ErrInvalidActionParams)
		}
	}

	return nil
}
