package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/google/uuid"
)

// FlowRepository stores one JSON document per flow under
// <root>/<org>/flows/<id>.json. Writing a flow rewrites the whole document,
// which gives the full-snapshot replace semantics of SaveFlow for free.
type FlowRepository struct {
	root string
	mu   sync.RWMutex
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(root string) *FlowRepository {
	return &FlowRepository{root: root}
}

func (r *FlowRepository) flowsDir(organizationID string) string {
	return filepath.Join(r.root, organizationID, "flows")
}

func (r *FlowRepository) flowPath(organizationID, id string) string {
	return filepath.Join(r.flowsDir(organizationID), id+".json")
}

// ListFlows returns the organization's definitions, most recently updated
// first. Graphs are included since the whole document is read anyway.
func (r *FlowRepository) ListFlows(_ context.Context, organizationID string) ([]*models.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.flowsDir(organizationID))
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*models.FlowDefinition, 0), nil
		}

		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.FlowDefinition, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		flow, err := r.readFlow(organizationID, entry.Name()[:len(entry.Name())-5])
		if err != nil {
			return nil, err
		}

		flows = append(flows, flow)
	}

	sort.Slice(flows, func(i, j int) bool {
		return flows[i].UpdatedAt.After(flows[j].UpdatedAt)
	})

	return flows, nil
}

// FlowWithGraph returns a definition with its node and edge set, scoped to
// the organization.
func (r *FlowRepository) FlowWithGraph(_ context.Context, id, organizationID string) (*models.FlowDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.readFlow(organizationID, id)
}

// SaveFlow writes the full flow snapshot.
func (r *FlowRepository) SaveFlow(_ context.Context, flow *models.FlowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	flow.UpdatedAt = now

	if flow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate flow ID: %w", err)
		}

		flow.ID = id.String()
	}

	// Replacing an existing flow keeps the original creation timestamp.
	if flow.CreatedAt.IsZero() {
		if existing, err := r.readFlow(flow.OrganizationID, flow.ID); err == nil {
			flow.CreatedAt = existing.CreatedAt
		} else {
			flow.CreatedAt = now
		}
	}

	if flow.Status == "" {
		flow.Status = models.FlowStatusDraft
	}

	if flow.Version == "" {
		flow.Version = "1"
	}

	for _, node := range flow.Nodes {
		if node.ID == "" {
			node.ID = uuid.New().String()
		}

		node.FlowID = flow.ID
	}

	for _, edge := range flow.Edges {
		if edge.ID == "" {
			edge.ID = uuid.New().String()
		}

		edge.FlowID = flow.ID
	}

	if err := os.MkdirAll(r.flowsDir(flow.OrganizationID), 0o755); err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	if err := os.WriteFile(r.flowPath(flow.OrganizationID, flow.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write flow file: %w", err)
	}

	return nil
}

// ListActiveFlows walks every organization directory and returns the active
// flows. The scheduler is the only caller.
func (r *FlowRepository) ListActiveFlows(ctx context.Context) ([]*models.FlowDefinition, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*models.FlowDefinition, 0), nil
		}

		return nil, fmt.Errorf("failed to list organization directories: %w", err)
	}

	active := make([]*models.FlowDefinition, 0)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		flows, err := r.ListFlows(ctx, entry.Name())
		if err != nil {
			return nil, err
		}

		for _, flow := range flows {
			if flow.Status == models.FlowStatusActive {
				active = append(active, flow)
			}
		}
	}

	return active, nil
}

func (r *FlowRepository) readFlow(organizationID, id string) (*models.FlowDefinition, error) {
	data, err := os.ReadFile(r.flowPath(organizationID, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrFlowNotFound
		}

		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}

	var flow models.FlowDefinition
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}

	if flow.Nodes == nil {
		flow.Nodes = make([]*models.FlowNode, 0)
	}

	if flow.Edges == nil {
		flow.Edges = make([]*models.FlowEdge, 0)
	}

	return &flow, nil
}
